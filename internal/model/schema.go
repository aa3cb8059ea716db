package model

// SchemaVersion is written into every persisted record.
const SchemaVersion = 1
