package alert

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"
)

// Message is a decoded alert email: headers plus the body part the
// adapters work with. HTML carries the text/html part when the message
// has one, Text the text/plain part.
type Message struct {
	From    string
	Subject string
	Date    time.Time
	HTML    string
	Text    string
}

// ParseMessage decodes one raw RFC 5322 message. Multipart bodies are
// walked for the text/html and text/plain parts; transfer encodings
// are undone. The Date header being absent or unparseable leaves the
// zero time rather than failing the whole message.
func ParseMessage(r io.Reader) (Message, error) {
	m, err := mail.ReadMessage(r)
	if err != nil {
		return Message{}, fmt.Errorf("reading message: %w", err)
	}

	var msg Message
	if addr, err := mail.ParseAddress(m.Header.Get("From")); err == nil {
		msg.From = addr.Address
	} else {
		msg.From = m.Header.Get("From")
	}

	dec := new(mime.WordDecoder)
	if subj, err := dec.DecodeHeader(m.Header.Get("Subject")); err == nil {
		msg.Subject = subj
	} else {
		msg.Subject = m.Header.Get("Subject")
	}

	if date, err := m.Header.Date(); err == nil {
		msg.Date = date
	}

	if err := readBody(&msg, m.Header.Get("Content-Type"),
		m.Header.Get("Content-Transfer-Encoding"), m.Body); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// readBody fills msg.HTML and msg.Text from one body or body part,
// recursing through multipart containers.
func readBody(msg *Message, contentType, encoding string, body io.Reader) error {
	mediaType := "text/plain"
	var params map[string]string
	if contentType != "" {
		mt, p, err := mime.ParseMediaType(contentType)
		if err != nil {
			return fmt.Errorf("parsing content type %q: %w", contentType, err)
		}
		mediaType = mt
		params = p
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return fmt.Errorf("multipart body without boundary")
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading body part: %w", err)
			}
			err = readBody(msg, part.Header.Get("Content-Type"),
				part.Header.Get("Content-Transfer-Encoding"), part)
			part.Close()
			if err != nil {
				return err
			}
		}
	}

	data, err := io.ReadAll(decodeTransfer(body, encoding))
	if err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}

	switch mediaType {
	case "text/html":
		if msg.HTML == "" {
			msg.HTML = string(data)
		}
	case "text/plain":
		if msg.Text == "" {
			msg.Text = string(data)
		}
	}
	return nil
}

func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	default:
		return r
	}
}
