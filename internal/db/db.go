package db

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/davidleitw/piazza/internal/record"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// QuestionDB archives normalized questions keyed by course and cid. Saving
// the same question twice replaces the earlier row.
type QuestionDB interface {
	WriteQuestion(courseID string, q *record.Question) error

	Get(courseID, cid string) (*record.Question, error)

	Count(courseID string) (int, error)

	Close() error
}

type questionDb struct {
	driver *sql.DB
}

var (
	tableCreateStatements = []string{
		`CREATE TABLE IF NOT EXISTS question (
			course_id TEXT NOT NULL,
			cid TEXT NOT NULL,
			subject TEXT NOT NULL,
			tags TEXT NOT NULL,
			question_upvotes INTEGER NOT NULL,
			document TEXT NOT NULL,
			PRIMARY KEY (course_id, cid)
		);`,
		`CREATE TABLE IF NOT EXISTS followup (
			course_id TEXT NOT NULL,
			cid TEXT NOT NULL,
			followup_index INTEGER NOT NULL,
			uid TEXT NOT NULL,
			content TEXT NOT NULL,
			comment_count INTEGER NOT NULL,
			PRIMARY KEY (course_id, cid, followup_index),
			FOREIGN KEY (course_id, cid) REFERENCES question(course_id, cid)
		);`,
	}
)

func ensureDirectoryExists(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logrus.Infof("Directory %s not exist, create it", dir)
		if err = os.MkdirAll(dir, 0755); err != nil {
			logrus.WithError(err).Error("os.MkdirAll")
			return err
		}
		logrus.Infof("Success create directory %s for question db", dir)
	}
	return nil
}

// Open opens or creates the sqlite archive at path.
func Open(path string) (QuestionDB, error) {
	if err := ensureDirectoryExists(path); err != nil {
		logrus.WithError(err).Error("ensureDirectoryExists failed")
		return nil, err
	}

	dbPath, err := filepath.Abs(path)
	if err != nil {
		logrus.WithError(err).Error("filepath.Abs failed")
		return nil, err
	}

	driver, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		logrus.WithError(err).Error("sql.Open failed")
		return nil, err
	}
	logrus.WithField("QuestionDbPath", dbPath).Debug("sql.Open success")

	for _, statement := range tableCreateStatements {
		if _, err := driver.Exec(statement); err != nil {
			logrus.WithError(err).Error("db.driver.Exec failed")
			driver.Close()
			return nil, err
		}
	}
	return &questionDb{driver: driver}, nil
}

func (db *questionDb) WriteQuestion(courseID string, q *record.Question) error {
	document, err := json.Marshal(q)
	if err != nil {
		logrus.WithError(err).Error("json.Marshal failed")
		return err
	}

	tx, err := db.driver.Begin()
	if err != nil {
		logrus.WithError(err).Error("db.driver.Begin failed")
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO question (course_id, cid, subject, tags, question_upvotes, document)
		VALUES (?, ?, ?, ?, ?, ?);`,
		courseID, q.Cid, q.Subject, q.Tags, q.QuestionUpvotes, string(document),
	); err != nil {
		logrus.WithError(err).Error("insert question failed")
		return err
	}

	if _, err := tx.Exec(`DELETE FROM followup WHERE course_id = ? AND cid = ?;`, courseID, q.Cid); err != nil {
		logrus.WithError(err).Error("delete followups failed")
		return err
	}
	for i, f := range q.Followups {
		if _, err := tx.Exec(
			`INSERT INTO followup (course_id, cid, followup_index, uid, content, comment_count)
			VALUES (?, ?, ?, ?, ?, ?);`,
			courseID, q.Cid, i, f.Uid, f.Content, len(f.Comments),
		); err != nil {
			logrus.WithError(err).Error("insert followup failed")
			return err
		}
	}
	return tx.Commit()
}

func (db *questionDb) Get(courseID, cid string) (*record.Question, error) {
	query := `SELECT document FROM question WHERE course_id = ? AND cid = ?;`

	var document string
	if err := db.driver.QueryRow(query, courseID, cid).Scan(&document); err != nil {
		logrus.WithError(err).Error("db.driver.QueryRow.Scan failed")
		return nil, err
	}

	q := &record.Question{}
	if err := json.Unmarshal([]byte(document), q); err != nil {
		logrus.WithError(err).Error("json.Unmarshal failed")
		return nil, err
	}
	return q, nil
}

func (db *questionDb) Count(courseID string) (int, error) {
	var count int
	err := db.driver.QueryRow(`SELECT COUNT(*) FROM question WHERE course_id = ?;`, courseID).Scan(&count)
	return count, err
}

func (db *questionDb) Close() error {
	return db.driver.Close()
}
