package piazza

import (
	"context"
	"fmt"
	"strconv"

	"github.com/davidleitw/piazza/internal/elastic"
	"github.com/davidleitw/piazza/internal/record"
	"github.com/davidleitw/piazza/internal/sink"
	"github.com/sirupsen/logrus"
)

// QuestionWriter receives every valid question a range scan produces.
type QuestionWriter interface {
	WriteQuestion(courseID string, q *record.Question) error
}

// Indexer stores a document body in a search index.
type Indexer interface {
	Index(ctx context.Context, index, docType string, body []byte) error
}

// WriteCourseQuestions visits content ids startID..endID in ascending order
// and hands each valid question to w. Error documents are dropped. The first
// transport or write failure stops the scan.
func (c *Client) WriteCourseQuestions(ctx context.Context, courseID string, w QuestionWriter, startID, endID int) error {
	for contentID := startID; contentID <= endID; contentID++ {
		q, err := c.GetQuestionData(ctx, strconv.Itoa(contentID), courseID)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.progress, contentID)

		if !q.Valid() {
			logrus.WithFields(logrus.Fields{
				"course_id":  courseID,
				"content_id": contentID,
				"reason":     q.Error,
			}).Debug("skip content")
			continue
		}
		if err := w.WriteQuestion(courseID, q); err != nil {
			logrus.WithError(err).WithField("content_id", contentID).Error("WriteQuestion failed")
			return err
		}
	}
	return nil
}

// WriteCourseQuestionData appends one JSON line per valid question to
// outputPath. Rerunning against the same file appends duplicates.
func (c *Client) WriteCourseQuestionData(ctx context.Context, courseID, outputPath string, startID, endID int) error {
	file, err := sink.OpenJSONL(outputPath)
	if err != nil {
		logrus.WithError(err).Error("sink.OpenJSONL failed")
		return err
	}
	defer file.Close()

	return c.WriteCourseQuestions(ctx, courseID, file, startID, endID)
}

// IndexCourseData stores the whole content.get response of every live
// question in startID..endID. Unlike the file path nothing is normalized and
// unusable ids are skipped without a trace in the index.
func (c *Client) IndexCourseData(ctx context.Context, indexer Indexer, index, docType, courseID string, startID, endID int) error {
	for contentID := startID; contentID <= endID; contentID++ {
		fmt.Fprintln(c.progress, courseID, contentID)

		envelope, err := c.GetRawResponse(ctx, strconv.Itoa(contentID), courseID)
		if err != nil {
			return err
		}
		if Classify(envelope.Result) != "" {
			continue
		}
		if err := indexer.Index(ctx, index, docType, envelope.Raw()); err != nil {
			logrus.WithError(err).WithField("content_id", contentID).Error("indexer.Index failed")
			return err
		}
	}
	return nil
}

func (c *Client) WriteCourseDataElasticsearch(ctx context.Context, hosts []string, index, docType, courseID string, startID, endID int) error {
	indexer, err := elastic.NewIndexer(hosts)
	if err != nil {
		logrus.WithError(err).Error("elastic.NewIndexer failed")
		return err
	}
	return c.IndexCourseData(ctx, indexer, index, docType, courseID, startID, endID)
}
