package repository

import (
	"encoding/json"
	"fmt"

	"github.com/etp-webadmin/etapprover/internal/models"
)

// deposition mirrors the Zenodo-style record shape, reduced to the fields
// the notifier reads.
type deposition struct {
	ID             json.Number `json:"id"`
	RecID          json.Number `json:"recid"`
	ApprovalStatus string      `json:"approval_status"`
	Metadata       struct {
		Title        string `json:"title"`
		ResourceType struct {
			Title   string `json:"title"`
			Subtype string `json:"subtype"`
		} `json:"resource_type"`
		Creators []struct {
			Name string `json:"name"`
		} `json:"creators"`
		Thesis struct {
			Supervisors []struct {
				Name string `json:"name"`
			} `json:"supervisors"`
		} `json:"thesis"`
	} `json:"metadata"`
}

// parseDepositions accepts both response shapes the API serves: a bare list
// and the {"hits": {"hits": [...]}} search envelope.
func parseDepositions(data []byte) ([]models.Submission, error) {
	var list []deposition
	if err := json.Unmarshal(data, &list); err != nil {
		var envelope struct {
			Hits struct {
				Hits []deposition `json:"hits"`
			} `json:"hits"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("parse submissions: %w", err)
		}
		list = envelope.Hits.Hits
	}

	subs := make([]models.Submission, 0, len(list))
	for _, d := range list {
		subs = append(subs, d.toSubmission())
	}
	return subs, nil
}

func (d deposition) toSubmission() models.Submission {
	id := d.ID.String()
	if id == "" || id == "0" {
		id = d.RecID.String()
	}

	sub := models.Submission{
		ID:            id,
		Title:         d.Metadata.Title,
		Level:         d.Metadata.ResourceType.Title,
		ApprovalState: d.ApprovalStatus,
	}
	if len(d.Metadata.Creators) > 0 {
		sub.Author = models.ParsePersonName(d.Metadata.Creators[0].Name)
	}
	for _, s := range d.Metadata.Thesis.Supervisors {
		name := models.ParsePersonName(s.Name)
		if !name.IsZero() {
			sub.Supervisors = append(sub.Supervisors, name)
		}
	}
	return sub
}
