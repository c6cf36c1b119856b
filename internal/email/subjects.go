package email

const (
	subjectFollowUpReminder = "Follow-up due: %s"
	subjectStaleLeadDigest  = "%d leads waiting for your attention"
)
