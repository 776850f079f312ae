// Package elastic writes documents into an Elasticsearch index.
package elastic

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/sirupsen/logrus"
)

// DefaultDocType is used when the caller leaves the document type empty.
const DefaultDocType = "_doc"

type Indexer struct {
	client *elasticsearch.Client
}

func NewIndexer(hosts []string) (*Indexer, error) {
	if len(hosts) == 0 {
		return nil, fmt.Errorf("no elasticsearch hosts given")
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: hosts})
	if err != nil {
		logrus.WithError(err).Error("elasticsearch.NewClient failed")
		return nil, err
	}
	return &Indexer{client: client}, nil
}

// Index stores body as a new document with a server assigned id.
func (i *Indexer) Index(ctx context.Context, index, docType string, body []byte) error {
	if docType == "" {
		docType = DefaultDocType
	}

	res, err := i.client.Index(
		index,
		bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentType(docType),
	)
	if err != nil {
		logrus.WithError(err).WithField("index", index).Error("elasticsearch index request failed")
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		detail, _ := io.ReadAll(res.Body)
		err := fmt.Errorf("index %s/%s: %s: %s", index, docType, res.Status(), bytes.TrimSpace(detail))
		logrus.WithError(err).Error("elasticsearch rejected document")
		return err
	}
	return nil
}
