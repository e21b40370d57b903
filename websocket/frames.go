package websocket

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/ecotrail/api-go/services"
	"github.com/ecotrail/api-go/types"
)

// Inbound actions.
const (
	ActionGetServices    = "get_services"
	ActionCompleteAction = "complete_action"
	ActionGetSiteDetails = "get_site_details"
	ActionPing           = "ping"
)

// Outbound frame types.
const (
	TypeWelcome      = "welcome"
	TypeServicesList = "services_list"
	TypeActionResult = "action_result"
	TypeSiteDetails  = "site_details"
	TypeError        = "error"
	TypePong         = "pong"
)

type envelope struct {
	Action string `json:"action"`
}

type WelcomeFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	UserID  *uint  `json:"user_id"`
}

type ServicesListFrame struct {
	Type     string                      `json:"type"`
	Services []types.ServiceWithDistance `json:"services"`
}

type DataFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type PongFrame struct {
	Type string `json:"type"`
}

func errorFrame(message string) ErrorFrame {
	return ErrorFrame{Type: TypeError, Message: message}
}

// frameID is a record id sent either as a JSON number or as a numeric
// string. null decodes to zero.
type frameID uint

func (id *frameID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return err
	}
	*id = frameID(n)
	return nil
}

// decodeCommand parses a frame into the command its action names. A nil
// command with a nil error means the action is not a dispatcher command.
func decodeCommand(action string, raw []byte) (services.Command, error) {
	switch action {
	case ActionGetServices:
		var cmd services.SearchNearby
		if err := json.Unmarshal(raw, &cmd); err != nil {
			return nil, services.ParseError(types.MsgInvalidFormat, err)
		}
		return cmd, nil
	case ActionGetSiteDetails:
		var in struct {
			SiteID frameID `json:"site_id"`
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, services.ParseError(types.MsgInvalidFormat, err)
		}
		return services.FetchSiteDetails{SiteID: uint(in.SiteID)}, nil
	case ActionCompleteAction:
		var in struct {
			ActionID frameID `json:"action_id"`
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, services.ParseError(types.MsgInvalidFormat, err)
		}
		return services.CompleteAction{ActionID: uint(in.ActionID)}, nil
	}
	return nil, nil
}

// encodeResult maps a dispatcher result to the frame sent back.
func encodeResult(cmd services.Command, res services.Result) interface{} {
	switch r := res.(type) {
	case services.ServicesListResult:
		list := r.Services
		if list == nil {
			list = []types.ServiceWithDistance{}
		}
		return ServicesListFrame{Type: TypeServicesList, Services: list}
	case services.SiteDetailsResult:
		return DataFrame{Type: TypeSiteDetails, Data: r.Site}
	case services.ActionResult:
		if r.Outcome.Status == services.StatusAlreadyCompleted {
			return DataFrame{Type: TypeActionResult, Data: types.ActionErrorData{Status: "error", Message: types.MsgAlreadyCompleted}}
		}
		return DataFrame{Type: TypeActionResult, Data: types.ActionResultData{
			Status:       string(r.Outcome.Status),
			Points:       r.Outcome.Points,
			Level:        r.Outcome.Level,
			LevelUp:      r.Outcome.LevelUp,
			PointsEarned: r.Outcome.PointsEarned,
			ActionName:   r.Outcome.ActionName,
		}}
	case services.ErrorResult:
		// refused completions stay inside action_result
		if _, ok := cmd.(services.CompleteAction); ok && r.Kind == services.KindNotFound {
			return DataFrame{Type: TypeActionResult, Data: types.ActionErrorData{Status: "error", Message: r.Message}}
		}
		return errorFrame(r.Message)
	}
	return errorFrame(types.MsgErrorPrefix + "unexpected result")
}
