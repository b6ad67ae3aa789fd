package tasks

// embeddedSchemaURL names the built-in schema inside the jsonschema compiler.
const embeddedSchemaURL = "taskspec-tasks.schema.json"

// TaskListSchema is the JSON Schema that a parsed task list must satisfy.
// It is checked against the serialized form {"tasks": [...]}.
const TaskListSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "taskspec parsed task list",
  "type": "object",
  "required": ["tasks"],
  "properties": {
    "tasks": {
      "type": "array",
      "items": { "$ref": "#/$defs/task" }
    }
  },
  "$defs": {
    "taskId": {
      "type": "string",
      "pattern": "^[0-9]+(\\.[0-9]+)*$"
    },
    "task": {
      "type": "object",
      "required": ["id", "description", "completed", "details", "dependsOn", "canRunParallel", "level"],
      "properties": {
        "id": { "$ref": "#/$defs/taskId" },
        "description": { "type": "string", "minLength": 1 },
        "leverage": { "type": "string" },
        "requirements": { "type": "string" },
        "completed": { "type": "boolean" },
        "details": { "type": "array", "items": { "type": "string" } },
        "dependsOn": {
          "type": "array",
          "items": { "$ref": "#/$defs/taskId" }
        },
        "canRunParallel": { "type": "boolean" },
        "blockedBy": {
          "type": "array",
          "minItems": 1,
          "items": { "$ref": "#/$defs/taskId" }
        },
        "parentId": { "$ref": "#/$defs/taskId" },
        "level": { "type": "integer", "minimum": 0 }
      },
      "additionalProperties": false
    }
  }
}
`
