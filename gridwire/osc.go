package gridwire

import (
	"encoding/base64"
	"strings"

	"github.com/gogpu/yeti"
)

// oscPrefix/oscSuffix bracket the whole sequence: ESC ] 666666 ; ... ;;
// base64 ESC \. 666666 is this module's reserved OSC identifier, chosen
// (per the multiplexer collaborator's convention) to avoid colliding
// with any terminal-standard OSC code.
const (
	oscPrefix = "\x1b]666666;"
	oscInner  = ";;"
	oscSuffix = "\x1b\\"
)

// Command is a decoded OSC control sequence: a command name ("run",
// "update"), its CLI-style option tokens, and the decoded payload
// carried after the base64 separator (empty for commands with none).
type Command struct {
	Name    string
	Args    []string
	Payload []byte
}

// ParseOSC decodes one OSC control sequence. data must be exactly one
// sequence, ESC-prefixed and ESC-\ terminated.
func ParseOSC(data []byte) (Command, error) {
	s := string(data)
	if !strings.HasPrefix(s, oscPrefix) || !strings.HasSuffix(s, oscSuffix) {
		return Command{}, yeti.NewError(yeti.InvalidArgument, "gridwire.ParseOSC: missing ESC ] 666666 ; ... ESC \\ framing")
	}
	body := s[len(oscPrefix) : len(s)-len(oscSuffix)]

	sepIdx := strings.Index(body, oscInner)
	if sepIdx < 0 {
		return Command{}, yeti.NewError(yeti.InvalidArgument, "gridwire.ParseOSC: missing ';;' command/payload separator")
	}
	commandPart, payloadPart := body[:sepIdx], body[sepIdx+len(oscInner):]

	fields := strings.Fields(commandPart)
	if len(fields) == 0 {
		return Command{}, yeti.NewError(yeti.InvalidArgument, "gridwire.ParseOSC: empty command")
	}

	var payload []byte
	if payloadPart != "" {
		decoded, err := base64.StdEncoding.DecodeString(payloadPart)
		if err != nil {
			return Command{}, yeti.WrapError(yeti.InvalidArgument, "gridwire.ParseOSC: invalid base64 payload", err)
		}
		payload = decoded
	}

	return Command{Name: fields[0], Args: fields[1:], Payload: payload}, nil
}

// FormatOSC renders cmd back into its wire form. Args are joined with a
// single space; Payload (if non-empty) is base64-encoded after the
// ";;" separator.
func FormatOSC(cmd Command) []byte {
	var b strings.Builder
	b.WriteString(oscPrefix)
	b.WriteString(cmd.Name)
	for _, arg := range cmd.Args {
		b.WriteByte(' ')
		b.WriteString(arg)
	}
	b.WriteString(oscInner)
	if len(cmd.Payload) > 0 {
		b.WriteString(base64.StdEncoding.EncodeToString(cmd.Payload))
	}
	b.WriteString(oscSuffix)
	return []byte(b.String())
}
