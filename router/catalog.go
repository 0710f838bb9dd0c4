package router

import (
	"encoding/json"

	"github.com/reverie-ai/reverie/types"
)

// Tool names. The names, parameter shapes, and enum values below are a
// wire contract with calling LLMs and must not drift.
const (
	ToolQueryUserFacts            = "query_user_facts"
	ToolRecallConversationContext = "recall_conversation_context"
	ToolQueryCharacterBackstory   = "query_character_backstory"
	ToolSummarizeUserRelationship = "summarize_user_relationship"
	ToolQueryTemporalTrends       = "query_temporal_trends"
)

const userFactsParams = `{
  "type": "object",
  "properties": {
    "user_id": {
      "type": "string",
      "description": "Unique identifier of the user whose facts to retrieve"
    },
    "fact_type": {
      "type": "string",
      "enum": ["pet", "hobby", "family", "preference", "location", "all"],
      "default": "all",
      "description": "Category of facts to retrieve"
    },
    "limit": {
      "type": "integer",
      "default": 10,
      "description": "Maximum number of facts to return"
    }
  },
  "required": ["user_id"]
}`

const recallContextParams = `{
  "type": "object",
  "properties": {
    "user_id": {
      "type": "string",
      "description": "Unique identifier of the user"
    },
    "query": {
      "type": "string",
      "description": "Topic or phrase to search past conversations for"
    },
    "time_window": {
      "type": "string",
      "enum": ["24h", "7d", "30d", "all"],
      "default": "all",
      "description": "How far back to search"
    },
    "limit": {
      "type": "integer",
      "default": 5,
      "description": "Maximum number of conversation matches to return"
    }
  },
  "required": ["user_id", "query"]
}`

const backstoryParams = `{
  "type": "object",
  "properties": {
    "character_name": {
      "type": "string",
      "description": "Name of the character whose background to query"
    },
    "query": {
      "type": "string",
      "description": "Topic to look up in the character background"
    },
    "source": {
      "type": "string",
      "enum": ["cdl_database", "self_memory", "both"],
      "default": "both",
      "description": "Which background corpus to read"
    }
  },
  "required": ["character_name", "query"]
}`

const relationshipParams = `{
  "type": "object",
  "properties": {
    "user_id": {
      "type": "string",
      "description": "Unique identifier of the user"
    },
    "include_facts": {
      "type": "boolean",
      "default": true,
      "description": "Include known user facts in the summary"
    },
    "include_conversations": {
      "type": "boolean",
      "default": true,
      "description": "Include recent conversation highlights in the summary"
    },
    "time_window": {
      "type": "string",
      "enum": ["24h", "7d", "30d", "all"],
      "default": "all",
      "description": "How far back to summarize"
    }
  },
  "required": ["user_id"]
}`

const trendsParams = `{
  "type": "object",
  "properties": {
    "user_id": {
      "type": "string",
      "description": "Unique identifier of the user"
    },
    "metric": {
      "type": "string",
      "enum": ["engagement_score", "satisfaction_score", "coherence_score", "emotional_resonance", "all"],
      "default": "all",
      "description": "Which quality metric series to read"
    },
    "time_window": {
      "type": "string",
      "enum": ["24h", "7d", "30d"],
      "default": "7d",
      "description": "Trailing window for the series"
    }
  },
  "required": ["user_id"]
}`

// Catalog returns the static registry of callable tool schemas in a
// stable order.
func Catalog() []types.ToolSchema {
	return []types.ToolSchema{
		{
			Name:        ToolQueryUserFacts,
			Description: "Retrieve structured facts known about a user, such as pets, hobbies, family, preferences, and locations.",
			Parameters:  json.RawMessage(userFactsParams),
		},
		{
			Name:        ToolRecallConversationContext,
			Description: "Semantic search over past conversations with a user, optionally bounded to a recent time window.",
			Parameters:  json.RawMessage(recallContextParams),
		},
		{
			Name:        ToolQueryCharacterBackstory,
			Description: "Look up character background and identity data from designer-authored facts and bot self-reflections.",
			Parameters:  json.RawMessage(backstoryParams),
		},
		{
			Name:        ToolSummarizeUserRelationship,
			Description: "Build a combined summary of the relationship with a user from known facts and conversation history.",
			Parameters:  json.RawMessage(relationshipParams),
		},
		{
			Name:        ToolQueryTemporalTrends,
			Description: "Read conversation quality metric trends (engagement, satisfaction, coherence, emotional resonance) over time.",
			Parameters:  json.RawMessage(trendsParams),
		},
	}
}
