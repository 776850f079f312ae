package commands

import (
	"fmt"

	"github.com/davidleitw/piazza/internal/config"
	"github.com/davidleitw/piazza/internal/piazza"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type postFlags struct {
	cid        string
	contentID  string
	answerType string
	unresolved bool
}

var post postFlags

func init() {
	for _, cmd := range []*cobra.Command{answerCmd, followupCmd, commentCmd} {
		cmd.Flags().StringVar(&post.cid, "cid", "", "The piazza cid of the target post.")
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{answerCmd, followupCmd} {
		cmd.Flags().StringVar(&post.contentID, "content_id", "", "The content number of the target post, used when --cid is not given.")
	}
	answerCmd.Flags().StringVar(&post.answerType, "type", "s_answer", "The answer type, s_answer or i_answer.")
	followupCmd.Flags().BoolVar(&post.unresolved, "unresolved", false, "Leave the followup unresolved.")
}

func postCourse(cfg config.Config) (string, error) {
	if len(cfg.CourseIDs) != 1 {
		return "", fmt.Errorf("exactly one course id is required, got %d", len(cfg.CourseIDs))
	}
	return cfg.CourseIDs[0], nil
}

func postSetup(cmd *cobra.Command) (*piazza.Client, string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, "", err
	}
	courseID, err := postCourse(cfg)
	if err != nil {
		return nil, "", err
	}
	client, err := newClient(cmd.Context(), cfg)
	if err != nil {
		return nil, "", err
	}
	return client, courseID, nil
}

var answerCmd = &cobra.Command{
	Use:   "answer <text>",
	Short: "Post an answer to a question.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if post.answerType != "s_answer" && post.answerType != "i_answer" {
			return fmt.Errorf("unknown answer type %q", post.answerType)
		}
		client, courseID, err := postSetup(cmd)
		if err != nil {
			return err
		}

		target := piazza.Target{Cid: post.cid, ContentID: post.contentID}
		if err := client.PostAnswer(cmd.Context(), courseID, args[0], post.answerType, target); err != nil {
			logrus.WithError(err).Error("client.PostAnswer failed")
			return err
		}
		logrus.WithField("course_id", courseID).Info("answer posted")
		return nil
	},
}

var followupCmd = &cobra.Command{
	Use:   "followup <text>",
	Short: "Open a followup discussion on a post.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, courseID, err := postSetup(cmd)
		if err != nil {
			return err
		}

		target := piazza.Target{Cid: post.cid, ContentID: post.contentID}
		id, err := client.PostFollowup(cmd.Context(), courseID, args[0], target, !post.unresolved)
		if err != nil {
			logrus.WithError(err).Error("client.PostFollowup failed")
			return err
		}
		if id == "" {
			return fmt.Errorf("piazza did not create the followup")
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment <text>",
	Short: "Reply to an existing followup.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if post.cid == "" {
			return fmt.Errorf("--cid of the followup is required")
		}
		client, courseID, err := postSetup(cmd)
		if err != nil {
			return err
		}

		if err := client.PostFollowupComment(cmd.Context(), courseID, args[0], post.cid); err != nil {
			logrus.WithError(err).Error("client.PostFollowupComment failed")
			return err
		}
		logrus.WithField("cid", post.cid).Info("comment posted")
		return nil
	},
}
