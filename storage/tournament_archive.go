package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dosada05/arena/models"
)

// TournamentArchive persists finished bracket summaries to the object
// store, one JSON document per tournament.
type TournamentArchive struct {
	uploader FileUploader
}

func NewTournamentArchive(uploader FileUploader) *TournamentArchive {
	return &TournamentArchive{uploader: uploader}
}

func (a *TournamentArchive) ArchiveTournament(ctx context.Context, summary *models.TournamentSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal tournament summary %s: %w", summary.TournamentID, err)
	}

	key := fmt.Sprintf("tournaments/%s.json", summary.TournamentID)
	if _, err := a.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		return fmt.Errorf("failed to archive tournament %s: %w", summary.TournamentID, err)
	}
	return nil
}
