package bot

const welcomeText = `🩺 *Welcome to Clinote\!*

Send me a clinical note and I will reply with a structured summary:

– *Chief Complaint*
– *Key Findings*
– *Diagnosis*
– *Treatment Plan*

You can paste the note as text or send a photo or a PNG/JPEG scan of it\.
Common abbreviations like _pt_, _c/o_, _hx_ or _SOB_ are expanded before summarizing\.

Use /help to see this message again\.`

const helpText = `*How to use Clinote*

– Paste a note as a text message
– Send a photo of a note, or a PNG/JPEG file up to the size limit
– Wait a bit: summaries are generated by a local model

The summary only uses information present in the note\. Always check it against the original\.`

func (b *Bot) handleStartCommand(chatID int64) error {
	return b.sendMarkdown(chatID, welcomeText)
}

func (b *Bot) handleHelpCommand(chatID int64) error {
	return b.sendMarkdown(chatID, helpText)
}
