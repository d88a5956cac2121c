package audit

import "testing"

func TestParseFullMethod(t *testing.T) {
	tests := []struct {
		fullMethod string
		want       ActionResource
	}{
		{"/grpc.health.v1.Health/Check", ActionResource{Action: "check", Resource: "health"}},
		{"/grpc.health.v1.Health/Watch", ActionResource{Action: "watch", Resource: "health"}},
		{"/rh360.auth.v1.SessionService/GetPrincipal", ActionResource{Action: "get", Resource: "session"}},
		{"/rh360.auth.v1.HandoffService/RedeemHandoff", ActionResource{Action: "redeem", Resource: "handoff"}},
		{"/rh360.auth.v1.UserService/ListUsers", ActionResource{Action: "list", Resource: "user"}},
		{"/rh360.auth.v1.UserService/Get", ActionResource{Action: "get", Resource: "user"}},
		{"/rh360.auth.v1.Service/Ping", ActionResource{Action: "ping", Resource: "unknown"}},
		{"/NoPackage/Ping", ActionResource{Action: "ping", Resource: "unknown"}},
		{"no-slash", ActionResource{Action: "unknown", Resource: "unknown"}},
		{"/x.Y/", ActionResource{Action: "unknown", Resource: "y"}},
	}
	for _, tt := range tests {
		if got := ParseFullMethod(tt.fullMethod); got != tt.want {
			t.Errorf("ParseFullMethod(%q) = %+v, want %+v", tt.fullMethod, got, tt.want)
		}
	}
}
