// Package telephony is the provider-facing edge of the relay: TwiML call
// instructions, the REST client that places outbound calls, webhook handlers
// for call and conference status, and the WebSocket media stream endpoint.
package telephony

import (
	"encoding/xml"
	"fmt"
)

// Response is the root TwiML document returned to the provider when a call
// leg connects. Verb order is preserved in the emitted markup: the media
// stream must start before the leg is dialed into the conference.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Say     *Say     `xml:"Say,omitempty"`
	Start   *Start   `xml:"Start,omitempty"`
	Dial    *Dial    `xml:"Dial,omitempty"`
	Hangup  *Hangup  `xml:"Hangup,omitempty"`
}

// Say speaks a message to the connected leg.
type Say struct {
	Language string `xml:"language,attr,omitempty"`
	Text     string `xml:",chardata"`
}

// Start opens out-of-band media handling for the call.
type Start struct {
	Stream *Stream `xml:"Stream"`
}

// Stream opens a bidirectional media stream to a WebSocket endpoint.
type Stream struct {
	URL string `xml:"url,attr"`
}

// Dial connects the leg to a conference.
type Dial struct {
	Conference *Conference `xml:"Conference"`
}

// Conference names the conference to join and where to report its lifecycle.
type Conference struct {
	StatusCallback      string `xml:"statusCallback,attr,omitempty"`
	StatusCallbackEvent string `xml:"statusCallbackEvent,attr,omitempty"`
	StartOnEnter        bool   `xml:"startConferenceOnEnter,attr"`
	EndOnExit           bool   `xml:"endConferenceOnExit,attr"`
	Name                string `xml:",chardata"`
}

// Hangup terminates the leg.
type Hangup struct{}

// JoinConference builds the TwiML connecting one leg: open the media stream
// at streamURL, then join the named conference with lifecycle callbacks sent
// to statusCallbackURL.
func JoinConference(conferenceName, streamURL, statusCallbackURL string) Response {
	return Response{
		Start: &Start{Stream: &Stream{URL: streamURL}},
		Dial: &Dial{Conference: &Conference{
			StatusCallback:      statusCallbackURL,
			StatusCallbackEvent: "start end join leave",
			StartOnEnter:        true,
			EndOnExit:           true,
			Name:                conferenceName,
		}},
	}
}

// Apology builds the TwiML for a leg that cannot be matched to a session:
// speak an apology, then hang up.
func Apology() Response {
	return Response{
		Say:    &Say{Language: "en", Text: "We are sorry, this call cannot be connected. Goodbye."},
		Hangup: &Hangup{},
	}
}

// Marshal renders the response as a TwiML document with XML header.
func (r Response) Marshal() ([]byte, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("telephony: marshal twiml: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
