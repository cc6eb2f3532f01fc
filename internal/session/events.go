package session

// Исходящие события клиенту
const (
	EventRecognitionStarted = "recognitionStarted"
	EventSpeechRecognized   = "speechRecognized"
	EventAudio              = "audio"
	EventResponseMetrics    = "responseMetrics"
	EventInterviewMetrics   = "interviewMetrics"
	EventInterviewEnd       = "interviewEnd"
	EventError              = "error"
)

// SpeechRecognized - промежуточная или законченная фраза кандидата
type SpeechRecognized struct {
	Text             string `json:"text"`
	IsCompletePhrase bool   `json:"isCompletePhrase"`
}

// Audio - реплика интервьюера и ее озвучка. Buffer кодируется в base64.
type Audio struct {
	Text   string `json:"text"`
	Buffer []byte `json:"buffer"`
}

type ResponseMetrics struct {
	Question          string         `json:"question"`
	Response          string         `json:"response"`
	WordFrequency     map[string]int `json:"wordFrequency"`
	AnswerTimeSeconds int            `json:"answerTimeSeconds"`
	QuietTimeSeconds  int            `json:"quietTimeSeconds"`
}

type InterviewMetrics struct {
	WordFrequency    map[string]int `json:"wordFrequency"`
	LengthSeconds    int            `json:"lengthSeconds"`
	QuietTimeSeconds int            `json:"quietTimeSeconds"`
}

type InterviewEnd struct {
	Feedback string `json:"feedback"`
}

type Error struct {
	Message string `json:"message"`
}

// InboundKind - тип входящего события от клиента
type InboundKind int

const (
	InboundAudio InboundKind = iota
	InboundFinishedSpeaking
	InboundStopRecording
	InboundQuestionFinishedPlaying
)

func (k InboundKind) String() string {
	switch k {
	case InboundAudio:
		return "audio"
	case InboundFinishedSpeaking:
		return "finishedSpeaking"
	case InboundStopRecording:
		return "stopRecording"
	case InboundQuestionFinishedPlaying:
		return "questionFinishedPlaying"
	default:
		return "unknown"
	}
}

// Inbound - событие от клиента. Audio заполнен только для InboundAudio.
type Inbound struct {
	Kind  InboundKind
	Audio []byte
}

// Emitter отправляет события клиенту
type Emitter interface {
	Emit(event string, data any) error
}
