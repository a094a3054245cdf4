package isp

import (
	"regexp"
	"strings"
	"testing"
)

func TestClassifyByToken(t *testing.T) {
	cases := []struct {
		org  string
		name string
	}{
		{"CHINANET-BACKBONE No.31,Jin-rong Street", "中国电信"},
		{"China Telecom Group", "中国电信"},
		{"CHINA UNICOM China169 Backbone", "中国联通"},
		{"China Mobile Communications Group", "中国移动"},
		{"CMCC", "中国移动"},
		{"China Tietong Backbone", "中国移动"},
		{"China Broadnet", "中国广电"},
		{"Beijing Gehua CATV Network", "中国广电"},
		{"CERNET-AS China Education and Research Network", "中国教育网"},
		{"Dr.Peng Group Beijing", "鹏博士长城宽带"},
		{"Great Wall Broadband Network", "鹏博士长城宽带"},
		{"PCCW Global", "香港电讯 HKT"},
		{"HKBN Enterprise Solutions", "香港宽频 HKBN"},
		{"HGC Global Communications", "环球全域电讯 HGC"},
		{"CMHK IDD", "中国移动香港 CMHK"},
		{"CTM Macau", "澳门电讯 CTM"},
		{"CHUNGHWA-IDC", "中华电信 HiNet"},
		{"Data Communication Business Group HINET", "中华电信 HiNet"},
		{"Alibaba (US) Technology Co., Ltd.", "阿里云"},
		{"Aliyun Computing Co., LTD", "阿里云"},
		{"Tencent Building, Kejizhongyi Avenue", "腾讯云"},
		{"HUAWEI CLOUDS", "华为云"},
		{"GOOGLE-CLOUD-PLATFORM", "谷歌云"},
		{"Amazon.com, Inc.", "亚马逊 AWS"},
		{"AWS EC2 ap-east-1", "亚马逊 AWS"},
		{"MICROSOFT-CORP-MSN-AS-BLOCK", "微软 Azure"},
		{"Oracle Corporation", "甲骨文云"},
		{"DIGITALOCEAN-ASN", "DigitalOcean"},
		{"The Constant Company LLC (Vultr)", "Vultr"},
		{"Linode, LLC", "Linode"},
		{"CLOUDFLARENET", "Cloudflare WARP"},
	}
	for _, c := range cases {
		got := Classify(c.org, 0)
		if got.Name != c.name {
			t.Fatalf("Classify(%q) = %q, want %q", c.org, got.Name, c.name)
		}
	}
}

func TestClassifyCaseAndSubstring(t *testing.T) {
	for _, org := range []string{"chinanet", "CHINANET", "xxCHInaNETxx", "prefix chinanet suffix"} {
		got := Classify(org, 4134)
		if got.Name != "中国电信" {
			t.Fatalf("Classify(%q) = %q, want 中国电信", org, got.Name)
		}
	}
}

func TestClassifyFallbackRawName(t *testing.T) {
	raw := "Shiodome Sumitomo Blog 1-9-2 TOKYO"
	got := Classify(raw, 45102)
	if got.Name != raw {
		t.Fatalf("fallback name = %q, want raw org %q", got.Name, raw)
	}
	if got.Color != FallbackColor || got.Bg != FallbackBg {
		t.Fatalf("fallback colors = %q/%q", got.Color, got.Bg)
	}
}

func TestClassifyEmpty(t *testing.T) {
	got := Classify("", 0)
	if got.Name != "未知网络" {
		t.Fatalf("Classify(\"\") name = %q, want 未知网络", got.Name)
	}
	if got.Color != FallbackColor {
		t.Fatalf("Classify(\"\") color = %q", got.Color)
	}
}

// 规则顺序是判定的一部分：telecom 规则排在 google 之前，重叠输入归电信
func TestClassifyFirstMatchWins(t *testing.T) {
	got := Classify("google cloud telecom hybrid", 1)
	if got.Name != "中国电信" {
		t.Fatalf("overlapping org = %q, want 中国电信 (rule order)", got.Name)
	}
	got = Classify("alibaba tencent", 1)
	if got.Name != "阿里云" {
		t.Fatalf("overlapping org = %q, want 阿里云 (rule order)", got.Name)
	}
	// 含 telecom 子串的境外组织串同样先命中电信规则，这是全局顺序的既定结果
	got = Classify("Chunghwa Telecom Co., Ltd.", 3462)
	if got.Name != "中国电信" {
		t.Fatalf("Chunghwa Telecom = %q, want 中国电信 (telecom token first)", got.Name)
	}
}

func TestClassifyIgnoresASN(t *testing.T) {
	a := Classify("CLOUDFLARENET", 13335)
	b := Classify("CLOUDFLARENET", 0)
	if a != b {
		t.Fatalf("asn changed result: %+v vs %+v", a, b)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	for i := 0; i < 3; i++ {
		got := Classify("CHINANET-BACKBONE", 4134)
		if got.Name != "中国电信" {
			t.Fatalf("call %d: %+v", i, got)
		}
	}
}

func TestRuleColorsWellFormed(t *testing.T) {
	hex := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	for _, ru := range rules {
		if !hex.MatchString(ru.ident.Color) {
			t.Fatalf("rule %v has bad color %q", ru.tokens, ru.ident.Color)
		}
		if !strings.HasPrefix(ru.ident.Bg, "rgba(") || !strings.HasSuffix(ru.ident.Bg, ",0.1)") {
			t.Fatalf("rule %v has bad bg %q", ru.tokens, ru.ident.Bg)
		}
		if ru.ident.Name == "" || len(ru.tokens) == 0 {
			t.Fatalf("rule %v incomplete", ru.tokens)
		}
		for _, tok := range ru.tokens {
			if tok != strings.ToLower(tok) {
				t.Fatalf("token %q is not lowercase", tok)
			}
		}
	}
}
