package websocket

import (
	"testing"

	"github.com/ecotrail/api-go/services"
)

func TestDecodeCommandIDs(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		raw     string
		want    services.Command
		wantErr bool
	}{
		{"site number", ActionGetSiteDetails, `{"action":"get_site_details","site_id":3}`, services.FetchSiteDetails{SiteID: 3}, false},
		{"site string", ActionGetSiteDetails, `{"action":"get_site_details","site_id":"3"}`, services.FetchSiteDetails{SiteID: 3}, false},
		{"site null", ActionGetSiteDetails, `{"action":"get_site_details","site_id":null}`, services.FetchSiteDetails{}, false},
		{"site missing", ActionGetSiteDetails, `{"action":"get_site_details"}`, services.FetchSiteDetails{}, false},
		{"site word", ActionGetSiteDetails, `{"action":"get_site_details","site_id":"trois"}`, nil, true},
		{"site negative", ActionGetSiteDetails, `{"action":"get_site_details","site_id":-1}`, nil, true},
		{"action string", ActionCompleteAction, `{"action":"complete_action","action_id":"12"}`, services.CompleteAction{ActionID: 12}, false},
		{"action number", ActionCompleteAction, `{"action":"complete_action","action_id":12}`, services.CompleteAction{ActionID: 12}, false},
		{"action object", ActionCompleteAction, `{"action":"complete_action","action_id":{}}`, nil, true},
		{"not a command", "dance", `{"action":"dance"}`, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeCommand(tt.action, []byte(tt.raw))
			if tt.wantErr {
				if services.KindOf(err) != services.KindParse || services.MessageOf(err) != "Format de données invalide" {
					t.Errorf("err = %v, want invalid format parse error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeCommand: %v", err)
			}
			if got != tt.want {
				t.Errorf("command = %#v, want %#v", got, tt.want)
			}
		})
	}
}
