package bot

import "context"

// MessageKind tags a chat message as plain text or photo-with-caption. Some
// edits are only legal on one kind, so renderers branch on it explicitly.
type MessageKind int

const (
	TextMessage MessageKind = iota
	PhotoMessage
)

// Ref identifies a message already in a chat.
type Ref struct {
	ChatID    int64
	MessageID int
	Kind      MessageKind
}

type Button struct {
	Text string
	Data string // callback token
	URL  string // external link; wins over Data
}

type Keyboard [][]Button

type ReplyKeyboard struct {
	Rows    [][]string
	OneTime bool
}

// Photo is either a remote URL or a local file.
type Photo struct {
	URL  string
	Path string
}

// View is a message to show. For photos Text is the caption.
type View struct {
	Kind      MessageKind
	Text      string
	Photo     Photo
	Markdown  bool
	Inline    Keyboard
	Reply     *ReplyKeyboard
	ReplyTo   int
	NoPreview bool
}

// Messenger is the chat transport.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, v View) (Ref, error)
	SendPhoto(ctx context.Context, chatID int64, v View) (Ref, error)
	EditText(ctx context.Context, ref Ref, v View) error
	EditCaption(ctx context.Context, ref Ref, v View) error
	DeleteMessage(ctx context.Context, ref Ref) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type Sender struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// Incoming is a text or photo message from a user.
type Incoming struct {
	Ref         Ref
	From        Sender
	Text        string
	PhotoFileID string
}

// CallbackQuery is an inline button press on Message.
type CallbackQuery struct {
	ID      string
	From    Sender
	Data    string
	Message Ref
}

// Update carries exactly one of Message or Callback.
type Update struct {
	Message  *Incoming
	Callback *CallbackQuery
}
