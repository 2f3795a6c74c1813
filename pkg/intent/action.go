// Package intent resolves free-text utterances into a closed vocabulary of
// structured actions with typed parameters.
package intent

// Action is one member of the closed action vocabulary.
type Action string

// The closed action vocabulary. The router dispatches on these and nothing
// else; anything outside the set resolves to ActionGeneralChat.
const (
	ActionCreateTask     Action = "create_task"
	ActionAssignTask     Action = "assign_task"
	ActionWorkingTask    Action = "working_task"
	ActionCompletedTask  Action = "completed_task"
	ActionListTasks      Action = "list_tasks"
	ActionHistory        Action = "history"
	ActionDeleteTask     Action = "delete_task"
	ActionTaskDetails    Action = "task_details"
	ActionCreateProject  Action = "create_project"
	ActionDeleteProject  Action = "delete_project"
	ActionProjectDetails Action = "project_details"
	ActionProjectFiles   Action = "project_files"
	ActionGetFiles       Action = "get_files"
	ActionLink           Action = "link"
	ActionAskProject     Action = "ask_project"
	ActionGeneralChat    Action = "general_chat"
)

// ParamSpec declares one recognized parameter key for an action.
type ParamSpec struct {
	Key      string
	Required bool
}

// Vocabulary maps every action to its declared parameter keys. Keys not
// declared here are dropped at extraction; declared keys missing from the
// utterance are kept as explicit nulls.
//
//nolint:gochecknoglobals // Static schema
var Vocabulary = map[Action][]ParamSpec{
	ActionCreateTask: {
		{Key: "name", Required: true},
		{Key: "description"},
		{Key: "project_name"},
		{Key: "assignee"},
		{Key: "deadline"},
	},
	ActionAssignTask: {
		{Key: "assignee", Required: true},
		{Key: "task_name"},
	},
	ActionWorkingTask: {
		{Key: "task_name", Required: true},
	},
	ActionCompletedTask: {
		{Key: "task_name", Required: true},
	},
	ActionListTasks: {},
	ActionHistory:   {},
	ActionDeleteTask: {
		{Key: "task_id", Required: true},
	},
	ActionTaskDetails: {
		{Key: "task_name"},
		{Key: "task_id"},
	},
	ActionCreateProject: {
		{Key: "name", Required: true},
		{Key: "description"},
		{Key: "raw_input"},
	},
	ActionDeleteProject: {
		{Key: "project_id", Required: true},
	},
	ActionProjectDetails: {
		{Key: "project_name", Required: true},
	},
	ActionProjectFiles: {
		{Key: "project_name", Required: true},
	},
	ActionGetFiles: {
		{Key: "project_name", Required: true},
	},
	ActionLink: {},
	ActionAskProject: {
		{Key: "project_name", Required: true},
		{Key: "question", Required: true},
	},
	ActionGeneralChat: {},
}

// IsValid reports whether a is a member of the closed vocabulary.
func (a Action) IsValid() bool {
	_, ok := Vocabulary[a]
	return ok
}

// Actions returns the vocabulary in a stable order for prompt rendering and
// exhaustive tests.
func Actions() []Action {
	return []Action{
		ActionCreateTask,
		ActionAssignTask,
		ActionWorkingTask,
		ActionCompletedTask,
		ActionListTasks,
		ActionHistory,
		ActionDeleteTask,
		ActionTaskDetails,
		ActionCreateProject,
		ActionDeleteProject,
		ActionProjectDetails,
		ActionProjectFiles,
		ActionGetFiles,
		ActionLink,
		ActionAskProject,
		ActionGeneralChat,
	}
}
