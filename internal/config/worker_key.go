package config

type WorkerKeyStruct struct {
	PersistDraftsQueue     string
	NotificationQueue      string
	NotificationDeadLetter string
}

var WorkerKey = &WorkerKeyStruct{
	PersistDraftsQueue:     "persist_drafts_queue",
	NotificationQueue:      "notification_queue",
	NotificationDeadLetter: "notification_dead_letter",
}
