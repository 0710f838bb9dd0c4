package router

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type paramSchema struct {
	Type       string `json:"type"`
	Properties map[string]struct {
		Type    string   `json:"type"`
		Enum    []string `json:"enum"`
		Default any      `json:"default"`
	} `json:"properties"`
	Required []string `json:"required"`
}

func TestCatalog_SchemaContract(t *testing.T) {
	t.Parallel()

	schemas := make(map[string]paramSchema)
	for _, tool := range Catalog() {
		var p paramSchema
		require.NoError(t, json.Unmarshal(tool.Parameters, &p), tool.Name)
		require.Equal(t, "object", p.Type, tool.Name)
		schemas[tool.Name] = p
	}
	require.Len(t, schemas, 5)

	facts := schemas[ToolQueryUserFacts]
	require.Equal(t, []string{"user_id"}, facts.Required)
	require.Equal(t,
		[]string{"pet", "hobby", "family", "preference", "location", "all"},
		facts.Properties["fact_type"].Enum)
	require.EqualValues(t, 10, facts.Properties["limit"].Default)

	recall := schemas[ToolRecallConversationContext]
	require.Equal(t, []string{"user_id", "query"}, recall.Required)
	require.Equal(t, []string{"24h", "7d", "30d", "all"}, recall.Properties["time_window"].Enum)
	require.EqualValues(t, 5, recall.Properties["limit"].Default)

	backstory := schemas[ToolQueryCharacterBackstory]
	require.Equal(t, []string{"character_name", "query"}, backstory.Required)
	require.Equal(t, []string{"cdl_database", "self_memory", "both"}, backstory.Properties["source"].Enum)
	require.Equal(t, "both", backstory.Properties["source"].Default)

	relationship := schemas[ToolSummarizeUserRelationship]
	require.Equal(t, []string{"user_id"}, relationship.Required)
	require.Equal(t, true, relationship.Properties["include_facts"].Default)
	require.Equal(t, true, relationship.Properties["include_conversations"].Default)

	trends := schemas[ToolQueryTemporalTrends]
	require.Equal(t, []string{"user_id"}, trends.Required)
	require.Equal(t,
		[]string{"engagement_score", "satisfaction_score", "coherence_score", "emotional_resonance", "all"},
		trends.Properties["metric"].Enum)
	// The unbounded window is deliberately absent from the trends tool.
	require.Equal(t, []string{"24h", "7d", "30d"}, trends.Properties["time_window"].Enum)
	require.Equal(t, "7d", trends.Properties["time_window"].Default)
}
