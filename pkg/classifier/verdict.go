package classifier

type Verdict uint8

const (
	Focused Verdict = iota
	DecodeError
	NoFace
	OffCenter
	NoEyes
	DetectorFailure
)

var verdictNames = map[Verdict]string{
	Focused:         "focused",
	DecodeError:     "decode_error",
	NoFace:          "no_face",
	OffCenter:       "off_center",
	NoEyes:          "no_eyes",
	DetectorFailure: "detector_failure",
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return "unknown"
}

func (v Verdict) Focused() bool {
	return v == Focused
}
