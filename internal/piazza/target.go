package piazza

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// PostLocation identifies a post by course (nid) and content number.
type PostLocation struct {
	CourseID  string
	ContentID int
}

func (loc PostLocation) validate() error {
	if loc.CourseID == "" {
		return fmt.Errorf("course id is missing")
	}
	if loc.ContentID <= 0 {
		return fmt.Errorf("content id %d is invalid", loc.ContentID)
	}
	return nil
}

func (loc PostLocation) GetPostUrl(baseURL string) string {
	return fmt.Sprintf("%s/class/%s/post/%d", strings.TrimRight(baseURL, "/"), loc.CourseID, loc.ContentID)
}

// ParsePostURL accepts both the current and the legacy piazza post links:
//
//	https://piazza.com/class/<nid>/post/<n>
//	https://piazza.com/class/<nid>?cid=<n>
func ParsePostURL(rawURL string) (*PostLocation, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		logrus.WithError(err).Error("url.Parse failed")
		return nil, err
	}

	parts := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "class" {
		return nil, fmt.Errorf("%q is not a piazza class url", rawURL)
	}

	loc := &PostLocation{CourseID: parts[1]}
	number := parsedURL.Query().Get("cid")
	if len(parts) >= 4 && parts[2] == "post" {
		number = parts[3]
	}
	if number == "" {
		return nil, fmt.Errorf("%q does not point at a post", rawURL)
	}

	contentID, err := strconv.Atoi(number)
	if err != nil {
		logrus.WithError(err).Error("strconv.Atoi failed")
		return nil, err
	}
	loc.ContentID = contentID

	if err := loc.validate(); err != nil {
		return nil, err
	}
	return loc, nil
}
