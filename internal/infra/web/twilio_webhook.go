package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/twilio/twilio-go/twiml"

	"polyglot-group-bot/internal/domain/model"
	"polyglot-group-bot/internal/infra/logging"
)

const twilioChannel = "twilio"

// handleTwilio turns a Twilio messaging webhook into an InboundMessage and
// answers with TwiML. An empty reply yields an empty <Response/>.
func (s *Server) handleTwilio(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	if s.validator != nil {
		params := make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			params[k] = r.PostForm.Get(k)
		}
		url := strings.TrimRight(s.publicURL, "/") + r.URL.RequestURI()
		if !s.validator.Validate(url, params, r.Header.Get("X-Twilio-Signature")) {
			s.log.Warn().Str("from", logging.Redact(r.PostForm.Get("From"), false)).Msg("rejected webhook with bad signature")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	in := model.InboundMessage{
		Body:      r.PostForm.Get("Body"),
		From:      r.PostForm.Get("From"),
		MediaURLs: mediaURLs(r),
		Channel:   twilioChannel,
	}
	if in.From == "" {
		http.Error(w, "missing From", http.StatusBadRequest)
		return
	}

	reply := s.bot.HandleInbound(r.Context(), in)

	var verbs []twiml.Element
	if reply != "" {
		verbs = append(verbs, &twiml.MessagingMessage{Body: reply})
	}
	doc, err := twiml.Messages(verbs)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to render twiml")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func mediaURLs(r *http.Request) []string {
	n, err := strconv.Atoi(r.PostForm.Get("NumMedia"))
	if err != nil || n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if u := r.PostForm.Get(fmt.Sprintf("MediaUrl%d", i)); u != "" {
			out = append(out, u)
		}
	}
	return out
}
