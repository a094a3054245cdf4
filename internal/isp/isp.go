// 包 isp：ASN 组织字符串到运营商展示身份（名称/品牌色/背景色）的有序规则匹配
package isp

import "strings"

// Identity：运营商展示身份
// 约束：Color 为 6 位十六进制 CSS 颜色；Bg 为同色系低透明度 rgba 背景（约定，不强校验）
type Identity struct {
	Name  string
	Color string
	Bg    string
}

// 未匹配兜底用的中性灰；导出供调用方识别兜底结果（指标观测用）
const (
	FallbackColor = "#909399"
	FallbackBg    = "rgba(144,147,153,0.1)"
)

// rule：一条匹配规则，tokens 任一命中（子串包含语义）即返回 ident
type rule struct {
	tokens []string
	ident  Identity
}

// 有序规则表：首条命中即返回，顺序承载优先级，不可为可读性重排
// 背景：组织字符串里的子串会互相重叠（如同时含 telecom 与 google），
// 先大陆运营商、再港澳台运营商、最后云厂商，组内按体量排列；
// 整表是一个全局固定顺序，换序会改变重叠输入的判定结果。
var rules = []rule{
	{tokens: []string{"chinanet", "telecom"}, ident: Identity{Name: "中国电信", Color: "#0070c0", Bg: "rgba(0,112,192,0.1)"}},
	{tokens: []string{"unicom"}, ident: Identity{Name: "中国联通", Color: "#e60012", Bg: "rgba(230,0,18,0.1)"}},
	{tokens: []string{"mobile", "cmcc", "tietong"}, ident: Identity{Name: "中国移动", Color: "#008c8c", Bg: "rgba(0,140,140,0.1)"}},
	{tokens: []string{"broadnet", "cable", "gehua"}, ident: Identity{Name: "中国广电", Color: "#f08300", Bg: "rgba(240,131,0,0.1)"}},
	{tokens: []string{"cernet"}, ident: Identity{Name: "中国教育网", Color: "#5c6bc0", Bg: "rgba(92,107,192,0.1)"}},
	{tokens: []string{"dr.peng", "great wall"}, ident: Identity{Name: "鹏博士长城宽带", Color: "#8e44ad", Bg: "rgba(142,68,173,0.1)"}},
	{tokens: []string{"hkt", "pccw"}, ident: Identity{Name: "香港电讯 HKT", Color: "#00856d", Bg: "rgba(0,133,109,0.1)"}},
	{tokens: []string{"hkbn"}, ident: Identity{Name: "香港宽频 HKBN", Color: "#7ac143", Bg: "rgba(122,193,67,0.1)"}},
	{tokens: []string{"hgc"}, ident: Identity{Name: "环球全域电讯 HGC", Color: "#e4002b", Bg: "rgba(228,0,43,0.1)"}},
	{tokens: []string{"cmhk"}, ident: Identity{Name: "中国移动香港 CMHK", Color: "#00629b", Bg: "rgba(0,98,155,0.1)"}},
	{tokens: []string{"ctm"}, ident: Identity{Name: "澳门电讯 CTM", Color: "#d71920", Bg: "rgba(215,25,32,0.1)"}},
	{tokens: []string{"chunghwa", "hinet"}, ident: Identity{Name: "中华电信 HiNet", Color: "#e71a0f", Bg: "rgba(231,26,15,0.1)"}},
	{tokens: []string{"alibaba", "aliyun"}, ident: Identity{Name: "阿里云", Color: "#ff6a00", Bg: "rgba(255,106,0,0.1)"}},
	{tokens: []string{"tencent"}, ident: Identity{Name: "腾讯云", Color: "#006eff", Bg: "rgba(0,110,255,0.1)"}},
	{tokens: []string{"huawei"}, ident: Identity{Name: "华为云", Color: "#c7000b", Bg: "rgba(199,0,11,0.1)"}},
	{tokens: []string{"google"}, ident: Identity{Name: "谷歌云", Color: "#4285f4", Bg: "rgba(66,133,244,0.1)"}},
	{tokens: []string{"amazon", "aws"}, ident: Identity{Name: "亚马逊 AWS", Color: "#ff9900", Bg: "rgba(255,153,0,0.1)"}},
	{tokens: []string{"microsoft", "azure"}, ident: Identity{Name: "微软 Azure", Color: "#0078d4", Bg: "rgba(0,120,212,0.1)"}},
	{tokens: []string{"oracle"}, ident: Identity{Name: "甲骨文云", Color: "#c74634", Bg: "rgba(199,70,52,0.1)"}},
	{tokens: []string{"digitalocean"}, ident: Identity{Name: "DigitalOcean", Color: "#0080ff", Bg: "rgba(0,128,255,0.1)"}},
	{tokens: []string{"vultr"}, ident: Identity{Name: "Vultr", Color: "#007bfc", Bg: "rgba(0,123,252,0.1)"}},
	{tokens: []string{"linode"}, ident: Identity{Name: "Linode", Color: "#00b159", Bg: "rgba(0,177,89,0.1)"}},
	{tokens: []string{"cloudflare"}, ident: Identity{Name: "Cloudflare WARP", Color: "#f38020", Bg: "rgba(243,128,32,0.1)"}},
}

// Classify：把原始组织字符串翻译为运营商展示身份
// 背景：对小写化后的组织串按固定顺序做子串匹配，首条命中即返回；
// asn 参数保留在签名中为将来基于号段的规则预留，当前所有判定只看组织串。
// 约束：对任意输入全定义，无错误路径；未命中时名称回退为原始串，
// 原始串为空再退到通用的未知网络标签。
func Classify(rawOrg string, asn uint32) Identity {
	low := strings.ToLower(rawOrg)
	for _, ru := range rules {
		for _, t := range ru.tokens {
			if strings.Contains(low, t) {
				return ru.ident
			}
		}
	}
	name := rawOrg
	if name == "" {
		name = "未知网络"
	}
	return Identity{Name: name, Color: FallbackColor, Bg: FallbackBg}
}
