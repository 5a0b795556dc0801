package telegram

import (
	"errors"
	"strconv"
	"strings"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
)

// Callback action constants.
const (
	actionDeck   = "deck"
	actionShow   = "show"
	actionRate   = "rate"
	actionMore   = "more"
	actionSubmit = "submit"
	actionReset  = "reset"
)

// sessionTagLen is the number of session id characters carried in callback
// data. Telegram limits callback data to 64 bytes.
const sessionTagLen = 8

var errInvalidCallback = errors.New("invalid callback data")

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// sessionTag shortens a session id for callback data.
func sessionTag(sessionID string) string {
	if len(sessionID) <= sessionTagLen {
		return sessionID
	}
	return sessionID[:sessionTagLen]
}

// matchesSession reports whether tag was produced from sessionID.
func matchesSession(tag, sessionID string) bool {
	return tag != "" && sessionTag(sessionID) == tag
}

func buildDeckCallback(deckID string) string {
	return callbackData{Action: actionDeck, Params: []string{deckID}}.encode()
}

func buildShowCallback(sessionID string) string {
	return callbackData{Action: actionShow, Params: []string{sessionTag(sessionID)}}.encode()
}

// buildRateCallback builds callback data for rating a card shown at the
// given queue position.
func buildRateCallback(sessionID string, position int, cardID string, q entities.Quality) string {
	return callbackData{
		Action: actionRate,
		Params: []string{
			sessionTag(sessionID),
			strconv.Itoa(position),
			cardID,
			strconv.Itoa(int(q)),
		},
	}.encode()
}

func buildMoreCallback(sessionID string) string {
	return callbackData{Action: actionMore, Params: []string{sessionTag(sessionID)}}.encode()
}

func buildSubmitCallback(sessionID string) string {
	return callbackData{Action: actionSubmit, Params: []string{sessionTag(sessionID)}}.encode()
}

func buildResetCallback(sessionID string) string {
	return callbackData{Action: actionReset, Params: []string{sessionTag(sessionID)}}.encode()
}

// rateParams is the decoded payload of a rate button.
type rateParams struct {
	SessionTag string
	Position   int
	CardID     string
	Quality    entities.Quality
}

func parseRateCallback(cd callbackData) (rateParams, error) {
	if cd.Action != actionRate || len(cd.Params) != 4 {
		return rateParams{}, errInvalidCallback
	}

	pos, err := strconv.Atoi(cd.Params[1])
	if err != nil || pos < 0 {
		return rateParams{}, errInvalidCallback
	}

	q, err := strconv.Atoi(cd.Params[3])
	if err != nil || !entities.Quality(q).Valid() {
		return rateParams{}, errInvalidCallback
	}
	if cd.Params[0] == "" || cd.Params[2] == "" {
		return rateParams{}, errInvalidCallback
	}

	return rateParams{
		SessionTag: cd.Params[0],
		Position:   pos,
		CardID:     cd.Params[2],
		Quality:    entities.Quality(q),
	}, nil
}

// singleParam returns the only parameter of cd.
func singleParam(cd callbackData) (string, error) {
	if len(cd.Params) != 1 || cd.Params[0] == "" {
		return "", errInvalidCallback
	}
	return cd.Params[0], nil
}
