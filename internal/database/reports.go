package database

import (
	"context"
	"fmt"
	"time"

	"movie-search-platform/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ReportStore persists ingestion run reports to MongoDB.
type ReportStore struct {
	collection *mongo.Collection
}

func NewReportStore(client *mongo.Client, dbName string) *ReportStore {
	return &ReportStore{
		collection: client.Database(dbName).Collection("ingest_reports"),
	}
}

// SaveReport inserts one run report.
func (rs *ReportStore) SaveReport(ctx context.Context, report models.IngestReport) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := rs.collection.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("insert ingest report %s: %w", report.RunID, err)
	}
	return nil
}
