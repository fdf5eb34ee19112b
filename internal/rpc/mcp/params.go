package mcp

// Param structs for each tool's InputSchema, manually unmarshaled in each
// handler: manual deserialization avoids 'unknown field' errors and gives
// better error messages.

type syncChangedFileParam struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

type syncParams struct {
	Repo         string                 `json:"repo"`
	Branch       string                 `json:"branch"`
	CommitSha    string                 `json:"commit_sha"`
	EventType    string                 `json:"event_type"`
	ChangedFiles []syncChangedFileParam `json:"changed_files"`
	DevID        string                 `json:"dev_id"`
}

type searchParams struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Branch string `json:"branch"`
}

type repoRegisterParams struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type repoUnregisterParams struct {
	Name string `json:"name"`
}

type refreshParams struct {
	Repo string `json:"repo"`
}

type reindexStaleParams struct {
	Repo string `json:"repo"`
}

type configPutParams struct {
	Settings map[string]string `json:"settings"`
}
