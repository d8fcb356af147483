package engine

import (
	"maps"
	"time"
)

// Simulated oracle service tags.
const (
	TagProofOfReserves = "Proof of Reserves"
	TagDataFeeds       = "Data Feeds"
	TagDataStreams     = "Data Streams"
	TagFunctions       = "Functions"
	TagAutomation      = "Automation"
	TagVRF             = "VRF"
)

// ReserveCollateral is the collateral the mocked proof of reserve reports.
const ReserveCollateral = 2847392

var feedPairs = []string{"ETH/USD", "BTC/USD", "USDC/USD", "DAI/USD", "USDT/USD"}

type serviceState map[string]map[string]any

// services builds the mocked oracle snapshot carried in extraContext under
// "dataServices". Overrides are merged per service on top of the idle baseline.
func services(now time.Time, overrides serviceState) map[string]any {
	ms := now.UnixMilli()
	base := serviceState{
		"dataFeeds":      {"active": 15, "pairs": append([]string(nil), feedPairs...), "lastUpdate": ms},
		"dataStreams":    {"active": 0, "lowLatencyFeeds": 0},
		"vrf":            {"requests": 0, "randomnessGenerated": 0},
		"proofOfReserve": {"verified": true, "totalCollateral": ReserveCollateral, "lastCheck": ms},
		"automation":     {"upkeepContracts": 0, "executionsToday": 0},
		"functions":      {"deployed": 0, "computationsToday": 0},
		"ccip":           {"crossChainMessages": 0, "supportedChains": 0},
	}
	for name, fields := range overrides {
		if _, ok := base[name]; !ok {
			base[name] = map[string]any{}
		}
		maps.Copy(base[name], fields)
	}

	out := make(map[string]any, len(base))
	for name, fields := range base {
		out[name] = jsonValue(map[string]any(fields))
	}
	return out
}

// jsonValue converts v to the types encoding/json decodes into, so a result
// compares equal to itself after a round trip.
func jsonValue(v any) any {
	switch v := v.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[k] = jsonValue(x)
		}
		return out
	}
	return v
}
