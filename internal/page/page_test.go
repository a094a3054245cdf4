package page

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	w := httptest.NewRecorder()
	d := Data{
		IP:       "203.0.113.7",
		NodeCode: "HKG",
		NodeName: "香港",
		NodeISO:  "hk",
		ISPName:  "中国电信",
		ISPColor: "#0070c0",
		ISPBg:    "rgba(0,112,192,0.1)",
		RawOrg:   "CHINANET-BACKBONE",
		ASN:      4134,
		RTT:      35,
		Total:    100,
		Today:    3,
		Commit:   "abc1234",
	}
	if err := Render(w, d); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if ct := w.Header().Get("content-type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("content-type = %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{
		"203.0.113.7",
		"香港 · HKG",
		"中国电信",
		"color:#0070c0",
		"background:rgba(0,112,192,0.1)",
		"flagcdn.com/w40/hk.png",
		"AS4134",
		"35 ms",
		"CHINANET-BACKBONE",
		"abc1234",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestRenderUnknownNode(t *testing.T) {
	w := httptest.NewRecorder()
	d := Data{IP: "192.0.2.1", NodeCode: "UNK", NodeName: "UNK", ISPName: "未知网络", ISPColor: "#909399", ISPBg: "rgba(144,147,153,0.1)"}
	if err := Render(w, d); err != nil {
		t.Fatalf("Render: %v", err)
	}
	body := w.Body.String()
	if strings.Contains(body, "flagcdn.com") {
		t.Fatalf("unknown node should have no flag")
	}
	if !strings.Contains(body, "未测得") {
		t.Fatalf("zero rtt should render 未测得")
	}
	if !strings.Contains(body, "分析功能未启用") {
		t.Fatalf("ai disabled note missing")
	}
}

func TestFlagURL(t *testing.T) {
	if got := (Data{NodeISO: "jp"}).FlagURL(); got != "https://flagcdn.com/w40/jp.png" {
		t.Fatalf("FlagURL = %q", got)
	}
	if got := (Data{}).FlagURL(); got != "" {
		t.Fatalf("empty iso FlagURL = %q", got)
	}
}
