package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/davidleitw/piazza/internal/config"
	"github.com/davidleitw/piazza/internal/db"
	"github.com/davidleitw/piazza/internal/piazza"
	"github.com/davidleitw/piazza/internal/record"
	"github.com/davidleitw/piazza/internal/sink"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type scrapeFlags struct {
	contentID string
	postURL   string
	raw       bool
	plain     bool

	startID  int
	endID    int
	dataFile string
	database string

	esHosts []string
	esIndex string
	esType  string
}

var scrape scrapeFlags

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&scrape.contentID, "content_id", "", "The id of the desired content. If not provided all course data will be written out.")
	flags.StringVar(&scrape.postURL, "url", "", "A piazza post url, sets the course and content id.")
	flags.BoolVar(&scrape.raw, "raw", false, "Print raw json data.")
	flags.BoolVar(&scrape.plain, "plain", false, "Strip HTML from question, answer, and followup text.")
	flags.IntVar(&scrape.startID, "start_id", piazza.DefaultStartID, "The id to start writing the course data from.")
	flags.IntVar(&scrape.endID, "end_id", piazza.DefaultEndID, "The id to stop writing the course data at.")
	flags.StringVar(&scrape.dataFile, "data_file", "", "The file to append all course data to when content_id is not provided.")
	flags.StringVar(&scrape.database, "db", "", "A sqlite file to archive all course questions into.")
	flags.StringSliceVar(&scrape.esHosts, "elasticsearch_hosts", nil, "If provided will store raw data into elasticsearch.")
	flags.StringVar(&scrape.esIndex, "elasticsearch_index", "", "If provided will store data into this es index.")
	flags.StringVar(&scrape.esType, "elasticsearch_type", "", "If provided will store data into this es type.")
}

// applyScrapeFlags fills the scrape settings the config file left empty and
// lets explicitly set flags win.
func applyScrapeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("start_id") || cfg.StartID == 0 {
		cfg.StartID = scrape.startID
	}
	if flags.Changed("end_id") || cfg.EndID == 0 {
		cfg.EndID = scrape.endID
	}
	if flags.Changed("data_file") {
		cfg.DataFile = scrape.dataFile
	}
	if flags.Changed("db") {
		cfg.Database = scrape.database
	}
	if flags.Changed("elasticsearch_hosts") {
		cfg.Elasticsearch.Hosts = scrape.esHosts
	}
	if flags.Changed("elasticsearch_index") {
		cfg.Elasticsearch.Index = scrape.esIndex
	}
	if flags.Changed("elasticsearch_type") {
		cfg.Elasticsearch.Type = scrape.esType
	}

	if scrape.postURL != "" {
		loc, err := piazza.ParsePostURL(scrape.postURL)
		if err != nil {
			return err
		}
		cfg.CourseIDs = []string{loc.CourseID}
		scrape.contentID = strconv.Itoa(loc.ContentID)
		logrus.WithField("post", loc.GetPostUrl(piazza.DefaultBaseURL)).Debug("target taken from url")
	}

	if len(cfg.CourseIDs) == 0 {
		return fmt.Errorf("at least one course id is required")
	}
	if cfg.StartID > cfg.EndID {
		return fmt.Errorf("start_id %d is after end_id %d", cfg.StartID, cfg.EndID)
	}
	return nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyScrapeFlags(cmd, &cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := newClient(ctx, cfg,
		piazza.WithPlainText(scrape.plain),
		piazza.WithProgressOutput(cmd.OutOrStdout()),
	)
	if err != nil {
		return err
	}

	es := cfg.Elasticsearch
	switch {
	case scrape.contentID != "":
		return printContent(ctx, cmd, client, cfg.CourseIDs[0])
	case len(es.Hosts) > 0 && es.Index != "" && es.Type != "":
		for _, courseID := range cfg.CourseIDs {
			logrus.WithField("course_id", courseID).Info("indexing course into elasticsearch")
			if err := client.WriteCourseDataElasticsearch(ctx, es.Hosts, es.Index, es.Type, courseID, cfg.StartID, cfg.EndID); err != nil {
				return err
			}
		}
		return nil
	case cfg.DataFile != "" && cfg.Database == "":
		for _, courseID := range cfg.CourseIDs {
			logrus.WithFields(logrus.Fields{"course_id": courseID, "file": cfg.DataFile}).Info("writing course questions")
			if err := client.WriteCourseQuestionData(ctx, courseID, cfg.DataFile, cfg.StartID, cfg.EndID); err != nil {
				return err
			}
		}
		return nil
	case cfg.Database != "":
		return archiveCourses(ctx, client, cfg)
	}
	return fmt.Errorf("nothing to do: pass --content_id, --data_file, --db, or all elasticsearch flags")
}

func printContent(ctx context.Context, cmd *cobra.Command, client *piazza.Client, courseID string) error {
	var out []byte
	if scrape.raw {
		envelope, err := client.GetRawResponse(ctx, scrape.contentID, courseID)
		if err != nil {
			return err
		}
		out = envelope.Raw()
	} else {
		q, err := client.GetQuestionData(ctx, scrape.contentID, courseID)
		if err != nil {
			return err
		}
		if out, err = json.Marshal(q); err != nil {
			logrus.WithError(err).Error("json.Marshal failed")
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
	return nil
}

// questionWriters fans each question out to every configured output.
type questionWriters []piazza.QuestionWriter

func (ws questionWriters) WriteQuestion(courseID string, q *record.Question) error {
	for _, w := range ws {
		if err := w.WriteQuestion(courseID, q); err != nil {
			return err
		}
	}
	return nil
}

func archiveCourses(ctx context.Context, client *piazza.Client, cfg config.Config) error {
	store, err := db.Open(cfg.Database)
	if err != nil {
		logrus.WithError(err).Error("db.Open failed")
		return err
	}
	defer store.Close()

	writers := questionWriters{store}
	if cfg.DataFile != "" {
		file, err := sink.OpenJSONL(cfg.DataFile)
		if err != nil {
			return err
		}
		defer file.Close()
		writers = append(writers, file)
	}

	for _, courseID := range cfg.CourseIDs {
		logrus.WithFields(logrus.Fields{"course_id": courseID, "db": cfg.Database}).Info("archiving course questions")
		if err := client.WriteCourseQuestions(ctx, courseID, writers, cfg.StartID, cfg.EndID); err != nil {
			return err
		}
		count, err := store.Count(courseID)
		if err != nil {
			logrus.WithError(err).Error("store.Count failed")
			return err
		}
		logrus.WithFields(logrus.Fields{"course_id": courseID, "questions": count}).Info("course archived")
	}
	return nil
}
