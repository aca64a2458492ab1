package store

import (
	"sort"

	"compliancehub/internal/document/models"
)

func sortByUpload(docs []*models.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.Before(docs[j].UploadedAt)
		}
		return docs[i].ID.String() < docs[j].ID.String()
	})
}
