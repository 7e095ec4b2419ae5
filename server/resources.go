package server

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gymkit/hevymcp/catalog"
	"github.com/gymkit/hevymcp/errors"
)

// CatalogResourceURI addresses the full exercise catalog
const CatalogResourceURI = "hevy://exercises/catalog"

func (s *Server) registerResources() {
	res := mcp.NewResource(CatalogResourceURI, "Hevy exercise catalog",
		mcp.WithResourceDescription("Every exercise template in the local catalog, in the snapshot file format"),
		mcp.WithMIMEType("application/json"),
	)
	s.mcp.AddResource(res, s.handleCatalogResource)
}

// catalogResource is the resource body: the snapshot file plus Spanish titles
type catalogResource struct {
	catalog.File
	Translations catalog.Translations `json:"translations,omitempty"`
}

func (s *Server) handleCatalogResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snap := s.store.Snapshot()
	records := snap.Records
	if records == nil {
		records = []catalog.ExerciseRecord{}
	}

	body := catalogResource{
		File: catalog.File{
			Page:              1,
			PageCount:         1,
			ExerciseTemplates: records,
			Metadata:          snap.Metadata,
		},
		Translations: snap.Translations,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode catalog resource")
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      CatalogResourceURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
