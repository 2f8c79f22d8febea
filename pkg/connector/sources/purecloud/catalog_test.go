package purecloud

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogKeys(t *testing.T) {
	want := map[string][]string{
		"users":                 {"id"},
		"groups":                {"id"},
		"location":              {"id"},
		"presence":              {"id"},
		"queues":                {"id"},
		"queue_membership":      {"id"},
		"queue_wrapup_code":     {"id"},
		"management_unit":       {"id"},
		"activity_code":         {"id", "management_unit_id"},
		"management_unit_users": {"user_id", "management_unit_id"},
		"user_schedule":         {"start_date", "user_id"},
		"conversation":          {"conversation_id"},
		"user_state":            {"id"},
		"historical_adherence":  {"userId", "management_unit_id", "startDate"},
	}

	streams := Catalog()
	require.Len(t, streams, len(want))
	for _, st := range streams {
		keys, ok := want[st.Name]
		require.True(t, ok, "unexpected stream %s", st.Name)
		assert.Equal(t, keys, st.KeyProperties, st.Name)
		for _, k := range st.KeyProperties {
			assert.True(t, st.Schema.Has(k), "%s schema lacks key %s", st.Name, k)
		}
	}
}

func TestCatalogIsCopied(t *testing.T) {
	streams := Catalog()
	streams[0].Name = "changed"
	assert.Equal(t, StreamUsers, Catalog()[0].Name)
}

func TestLookup(t *testing.T) {
	st, ok := Lookup(StreamUserSchedule)
	require.True(t, ok)
	assert.Equal(t, []string{"start_date", "user_id"}, st.KeyProperties)

	_, ok = Lookup("nope")
	assert.False(t, ok)
	assert.Panics(t, func() { mustStream("nope") })
}

func TestDiscoverDocument(t *testing.T) {
	data, err := json.Marshal(Discover())
	require.NoError(t, err)

	var doc struct {
		Streams []struct {
			Stream        string                 `json:"stream"`
			TapStreamID   string                 `json:"tap_stream_id"`
			Schema        map[string]interface{} `json:"schema"`
			KeyProperties []string               `json:"key_properties"`
		} `json:"streams"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Streams, len(Catalog()))

	conv := doc.Streams[11]
	assert.Equal(t, StreamConversation, conv.Stream)
	assert.Equal(t, conv.Stream, conv.TapStreamID)
	props := conv.Schema["properties"].(map[string]interface{})
	assert.Contains(t, props, "participants")
}
