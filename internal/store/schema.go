package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// SubjectsColumns holds the columns for the "subjects" table.
	SubjectsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "exam_date", Type: field.TypeString, Size: 10},
		{Name: "priority", Type: field.TypeFloat64, Default: 0},
		{Name: "position", Type: field.TypeInt},
		{Name: "created_at", Type: field.TypeTime},
	}
	// SubjectsTable holds the schema information for the "subjects" table.
	SubjectsTable = &schema.Table{
		Name:       "subjects",
		Columns:    SubjectsColumns,
		PrimaryKey: []*schema.Column{SubjectsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "subject_position", Unique: false, Columns: []*schema.Column{SubjectsColumns[4]}},
		},
	}

	// ChaptersColumns holds the columns for the "chapters" table.
	ChaptersColumns = []*schema.Column{
		{Name: "subject_id", Type: field.TypeString},
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeEnum, Enums: []string{"easy", "medium", "hard"}, Default: "medium"},
		{Name: "estimated_hours", Type: field.TypeFloat64},
		{Name: "completed", Type: field.TypeBool, Default: false},
		{Name: "position", Type: field.TypeInt},
	}
	// ChaptersTable holds the schema information for the "chapters" table.
	ChaptersTable = &schema.Table{
		Name:       "chapters",
		Columns:    ChaptersColumns,
		PrimaryKey: []*schema.Column{ChaptersColumns[0], ChaptersColumns[1]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "chapters_subjects_chapters",
				Columns:    []*schema.Column{ChaptersColumns[0]},
				RefColumns: []*schema.Column{SubjectsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "chapter_subject_id_position", Unique: false, Columns: []*schema.Column{ChaptersColumns[0], ChaptersColumns[6]}},
		},
	}

	// AvailabilityColumns holds the columns for the "availability" table.
	AvailabilityColumns = []*schema.Column{
		{Name: "weekday", Type: field.TypeInt},
		{Name: "hours", Type: field.TypeFloat64},
	}
	// AvailabilityTable holds the schema information for the "availability" table.
	AvailabilityTable = &schema.Table{
		Name:       "availability",
		Columns:    AvailabilityColumns,
		PrimaryKey: []*schema.Column{AvailabilityColumns[0]},
	}

	// SessionsColumns holds the columns for the "sessions" table.
	SessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "subject_id", Type: field.TypeString},
		{Name: "chapter_id", Type: field.TypeString},
		{Name: "date", Type: field.TypeString, Size: 10},
		{Name: "duration_ns", Type: field.TypeInt64},
		{Name: "completed", Type: field.TypeBool, Default: false},
		{Name: "manual", Type: field.TypeBool, Default: false},
		{Name: "position", Type: field.TypeInt},
	}
	// SessionsTable holds the schema information for the "sessions" table.
	SessionsTable = &schema.Table{
		Name:       "sessions",
		Columns:    SessionsColumns,
		PrimaryKey: []*schema.Column{SessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "session_subject_id", Unique: false, Columns: []*schema.Column{SessionsColumns[1]}},
			{Name: "session_date", Unique: false, Columns: []*schema.Column{SessionsColumns[3]}},
			{Name: "session_manual", Unique: false, Columns: []*schema.Column{SessionsColumns[6]}},
		},
	}

	// PlanEventsColumns holds the columns for the "plan_events" table.
	PlanEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "action", Type: field.TypeString},
		{Name: "start_date", Type: field.TypeString, Size: 10},
		{Name: "horizon_days", Type: field.TypeInt, Default: 0},
		{Name: "subjects", Type: field.TypeInt, Default: 0},
		{Name: "sessions", Type: field.TypeInt, Default: 0},
		{Name: "scheduled_ns", Type: field.TypeInt64, Default: 0},
		{Name: "unscheduled_ns", Type: field.TypeInt64, Default: 0},
		{Name: "detail", Type: field.TypeString, Nullable: true},
	}
	// PlanEventsTable holds the schema information for the "plan_events" table.
	PlanEventsTable = &schema.Table{
		Name:       "plan_events",
		Columns:    PlanEventsColumns,
		PrimaryKey: []*schema.Column{PlanEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "planevent_timestamp", Unique: false, Columns: []*schema.Column{PlanEventsColumns[2]}},
			{Name: "planevent_action", Unique: false, Columns: []*schema.Column{PlanEventsColumns[3]}},
		},
	}

	// SnapshotsColumns holds the columns for the "snapshots" table.
	SnapshotsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "reason", Type: field.TypeString, Default: ""},
		{Name: "data", Type: field.TypeJSON},
	}
	// SnapshotsTable holds the schema information for the "snapshots" table.
	SnapshotsTable = &schema.Table{
		Name:       "snapshots",
		Columns:    SnapshotsColumns,
		PrimaryKey: []*schema.Column{SnapshotsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "snapshot_timestamp", Unique: false, Columns: []*schema.Column{SnapshotsColumns[2]}},
			{Name: "snapshot_sequence", Unique: false, Columns: []*schema.Column{SnapshotsColumns[1]}},
		},
	}

	// SequencesColumns holds the columns for the "sequences" table.
	SequencesColumns = []*schema.Column{
		{Name: "name", Type: field.TypeString},
		{Name: "value", Type: field.TypeInt64, Default: 0},
	}
	// SequencesTable holds the schema information for the "sequences" table.
	SequencesTable = &schema.Table{
		Name:       "sequences",
		Columns:    SequencesColumns,
		PrimaryKey: []*schema.Column{SequencesColumns[0]},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		SubjectsTable,
		ChaptersTable,
		AvailabilityTable,
		SessionsTable,
		PlanEventsTable,
		SnapshotsTable,
		SequencesTable,
	}
)

func init() {
	ChaptersTable.ForeignKeys[0].RefTable = SubjectsTable
}
