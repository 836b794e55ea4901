package imagegen

// OutcomeKind は1回の生成結果の種別です。
type OutcomeKind int

const (
	// OutcomeSuccess は応答から画像を取り出せたことを表します。
	OutcomeSuccess OutcomeKind = iota
	// OutcomePlaceholder は再試行しても画像が得られず、プレースホルダーで代替したことを表します。
	OutcomePlaceholder
	// OutcomeFailed は分類済みの失敗です。
	OutcomeFailed
	// OutcomeAborted は呼び出し側のキャンセルによる中断です。失敗には数えません。
	OutcomeAborted
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomePlaceholder:
		return "placeholder"
	case OutcomeFailed:
		return "failed"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Outcome は Generate の戻り値です。失敗も error ではなくこの値で表現します。
type Outcome struct {
	Kind      OutcomeKind
	ImageURI  string
	ErrorKind ErrorKind
	Message   string
	Err       error
	Attempts  int
}

// Success は画像（プレースホルダーを含む）が得られたかを返します。
func (o Outcome) Success() bool {
	return o.Kind == OutcomeSuccess || o.Kind == OutcomePlaceholder
}

// Aborted はキャンセルによる中断かを返します。
func (o Outcome) Aborted() bool {
	return o.Kind == OutcomeAborted
}

func succeeded(uri string, attempts int) Outcome {
	return Outcome{Kind: OutcomeSuccess, ImageURI: uri, Attempts: attempts}
}

func failed(kind ErrorKind, msg string, err error) Outcome {
	return Outcome{Kind: OutcomeFailed, ErrorKind: kind, Message: msg, Err: err}
}

func aborted(err error) Outcome {
	return Outcome{Kind: OutcomeAborted, ErrorKind: ErrorKindAborted, Message: "キャンセルされました", Err: err}
}
