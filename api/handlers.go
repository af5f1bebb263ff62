// Package api exposes the agent over HTTP: one endpoint per conversation
// turn and one for booking a chosen slot. Conversation history, lead data,
// and the card ref travel in the payloads; the server stores nothing between
// requests.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	contractx "github.com/verzel/sdr-agent/agent/contract"
)

// Agent is the orchestrator surface the handlers need.
type Agent interface {
	HandleTurn(ctx context.Context, history []contractx.ChatTurn) (contractx.TurnResult, error)
	HandleBooking(ctx context.Context, slot contractx.Slot, lead contractx.Lead, cardRef contractx.CardRef) (contractx.TurnResult, error)
}

// RegisterRoutes mounts the chat, schedule, and health endpoints.
func RegisterRoutes(mux *http.ServeMux, agent Agent) {
	mux.HandleFunc("POST /chat", handleChat(agent))
	mux.HandleFunc("POST /schedule", handleSchedule(agent))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

type chatRequest struct {
	History []contractx.ChatTurn `json:"history"`
}

type dialogueResponse struct {
	Text string `json:"text"`
}

type showSlotsResponse struct {
	Action  string           `json:"action"`
	Slots   []contractx.Slot `json:"slots"`
	Lead    *contractx.Lead  `json:"lead"`
	CardRef string           `json:"card_ref"`
}

type statusResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	CardRef     string `json:"card_ref,omitempty"`
	CardURL     string `json:"card_url,omitempty"`
	MeetingLink string `json:"meeting_link,omitempty"`
	MeetingTime string `json:"meeting_time,omitempty"`
	Warning     string `json:"warning,omitempty"`
}

func handleChat(agent Agent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		res, err := agent.HandleTurn(r.Context(), req.History)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, contractx.ErrProvider) {
				status = http.StatusBadGateway
			}
			WriteError(w, status, err.Error())
			return
		}

		writeTurnResult(w, res)
	}
}

func writeTurnResult(w http.ResponseWriter, res contractx.TurnResult) {
	switch res.Kind {
	case contractx.TurnDialogue:
		WriteJSON(w, http.StatusOK, dialogueResponse{Text: res.Text})
	case contractx.TurnSlotsOffered:
		WriteJSON(w, http.StatusOK, showSlotsResponse{
			Action:  "show_slots",
			Slots:   res.Slots,
			Lead:    res.Lead,
			CardRef: cardID(res.CardRef),
		})
	case contractx.TurnLeadRegistered:
		WriteJSON(w, http.StatusOK, statusResponse{
			Status:  "success",
			Message: res.Text,
			CardRef: cardID(res.CardRef),
			CardURL: cardURL(res.CardRef),
		})
	case contractx.TurnNoSlots:
		WriteJSON(w, http.StatusOK, statusResponse{
			Status:  "success",
			Message: res.Text,
			CardRef: cardID(res.CardRef),
			CardURL: cardURL(res.CardRef),
		})
	case contractx.TurnCrmFailure:
		WriteError(w, http.StatusBadGateway, res.Detail)
	default:
		WriteError(w, http.StatusInternalServerError, "unexpected turn result")
	}
}

type scheduleRequest struct {
	Slot    contractx.Slot `json:"slot"`
	Lead    contractx.Lead `json:"lead"`
	CardRef string         `json:"card_ref"`
	CardURL string         `json:"card_url,omitempty"`
}

func handleSchedule(agent Agent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		res, err := agent.HandleBooking(r.Context(), req.Slot, req.Lead, contractx.CardRef{ID: req.CardRef, URL: req.CardURL})
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}

		switch res.Kind {
		case contractx.TurnMeetingBooked:
			resp := statusResponse{
				Status:  "success",
				Message: res.Text,
				Warning: res.Warning,
			}
			if res.Confirmation != nil {
				resp.MeetingLink = res.Confirmation.MeetingLink
				resp.MeetingTime = res.Confirmation.MeetingTime.UTC().Format(time.RFC3339)
			}
			WriteJSON(w, http.StatusOK, resp)
		case contractx.TurnInvalidLead:
			WriteError(w, http.StatusBadRequest, res.Detail)
		case contractx.TurnBookingFailed:
			WriteError(w, http.StatusBadGateway, res.Detail)
		default:
			WriteError(w, http.StatusInternalServerError, "unexpected booking result")
		}
	}
}

func cardID(ref *contractx.CardRef) string {
	if ref == nil {
		return ""
	}
	return ref.ID
}

func cardURL(ref *contractx.CardRef) string {
	if ref == nil {
		return ""
	}
	return ref.URL
}
