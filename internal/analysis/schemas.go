package analysis

// JSON schemas for the structured generation calls. Field names match
// the workflow types' JSON tags so the payloads unmarshal directly.

const outlineSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "title": {"type": "string"},
    "sections": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "title": {"type": "string"}
        },
        "required": ["title"]
      }
    }
  },
  "required": ["title", "sections"]
}`

const expertGroupSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "experts": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string"},
          "role": {"type": "string"},
          "expertise": {"type": "string"},
          "description": {"type": "string"}
        },
        "required": ["name", "role", "expertise", "description"]
      }
    }
  },
  "required": ["experts"]
}`
