package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
)

func TestNew(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	entityID := id.NewEntityID()
	subject := uuid.New()

	t.Run("builds unread notification in UTC", func(t *testing.T) {
		n, err := New(TypeStatusChange, entityID, subject, "  Status changed ", "msg", now)
		require.NoError(t, err)
		assert.False(t, n.Read)
		assert.Equal(t, "Status changed", n.Title)
		assert.Equal(t, time.UTC, n.CreatedAt.Location())
		assert.False(t, n.ID.IsNil())
	})

	cases := []struct {
		name    string
		typ     Type
		entity  id.EntityID
		subject uuid.UUID
		title   string
		field   string
	}{
		{"unknown type", Type("BOGUS"), entityID, subject, "t", "type"},
		{"missing entity", TypeStatusChange, id.EntityID{}, subject, "t", "entity_id"},
		{"missing subject", TypeStatusChange, entityID, uuid.Nil, "t", "subject_id"},
		{"blank title", TypeStatusChange, entityID, subject, "  ", "title"},
		{"long title", TypeStatusChange, entityID, subject, strings.Repeat("x", 201), "title"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.typ, tc.entity, tc.subject, tc.title, "", now)
			require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			de, _ := dErrors.As(err)
			assert.Equal(t, tc.field, de.Field)
		})
	}
}

func TestFilterMatches(t *testing.T) {
	entityID := id.NewEntityID()
	n := &Notification{EntityID: entityID}

	assert.True(t, Filter{}.Matches(n))
	assert.True(t, Filter{EntityID: &entityID, UnreadOnly: true}.Matches(n))

	other := id.NewEntityID()
	assert.False(t, Filter{EntityID: &other}.Matches(n))

	n.Read = true
	assert.False(t, Filter{UnreadOnly: true}.Matches(n))
}

func TestDedupeKeyDistinguishesType(t *testing.T) {
	subject := uuid.New()
	assert.NotEqual(t, DedupeKey(subject, TypeDeadlineApproaching), DedupeKey(subject, TypeStatusChange))
	assert.Equal(t, DedupeKey(subject, TypeDeadlineApproaching), DedupeKey(subject, TypeDeadlineApproaching))
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &Notification{ID: id.NewNotificationID(), CreatedAt: base}
	b := &Notification{ID: id.NewNotificationID(), CreatedAt: base.Add(time.Hour)}
	c := &Notification{ID: id.NewNotificationID(), CreatedAt: base.Add(2 * time.Hour)}

	list := []*Notification{a, c, b}
	SortNewestFirst(list)
	assert.Equal(t, []*Notification{c, b, a}, list)
}
