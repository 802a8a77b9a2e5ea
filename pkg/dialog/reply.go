package dialog

// Reply is a transport-neutral answer to one user message
type Reply struct {
	Text string
	// Options are rendered as a reply keyboard, one button per row
	Options        []string
	RemoveKeyboard bool
	Document       *Document
}

// Document is a file attachment sent along with a reply
type Document struct {
	Name string
	Data []byte
}

func prompt(text string, options []string) Reply {
	return Reply{Text: text, Options: options}
}

func done(text string) Reply {
	return Reply{Text: text, RemoveKeyboard: true}
}
