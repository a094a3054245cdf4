// 包 colo：边缘节点三字码到展示信息（中文城市名 + 国旗代码）的静态映射
package colo

import "strings"

// Entry：单个节点的展示信息
// 约束：ISO 为小写 ISO-3166-1 alpha-2，用于拼接国旗图片路径（{iso}.png）；未知时为空串
type Entry struct {
	Name string
	ISO  string
}

// 静态节点表：按大写三字码索引，进程启动时构建一次，之后只读
// 约束：仅收录本服务实际出现过的边缘节点；未收录的码走降级路径而非报错
var table = map[string]Entry{
	"HKG": {Name: "香港", ISO: "hk"},
	"TPE": {Name: "台北", ISO: "tw"},
	"NRT": {Name: "东京", ISO: "jp"},
	"KIX": {Name: "大阪", ISO: "jp"},
	"ICN": {Name: "首尔", ISO: "kr"},
	"SIN": {Name: "新加坡", ISO: "sg"},
	"KUL": {Name: "吉隆坡", ISO: "my"},
	"BKK": {Name: "曼谷", ISO: "th"},
	"SGN": {Name: "胡志明市", ISO: "vn"},
	"MNL": {Name: "马尼拉", ISO: "ph"},
	"LAX": {Name: "洛杉矶", ISO: "us"},
	"SJC": {Name: "圣何塞", ISO: "us"},
	"SFO": {Name: "旧金山", ISO: "us"},
	"SEA": {Name: "西雅图", ISO: "us"},
	"JFK": {Name: "纽约", ISO: "us"},
	"LHR": {Name: "伦敦", ISO: "gb"},
	"FRA": {Name: "法兰克福", ISO: "de"},
	"AMS": {Name: "阿姆斯特丹", ISO: "nl"},
	"SYD": {Name: "悉尼", ISO: "au"},
}

// Translate：将平台提供的节点码翻译为展示信息
// 背景：平台给出的码可能是小写或混合大小写，统一转大写后查表；
// 未命中时把大写原码本身作为名称返回（含平台的 UNK 哨兵值），不给国旗。
// 约束：对任意字符串全定义，无错误路径；返回值为副本，调用方修改不影响共享表。
func Translate(code string) Entry {
	up := strings.ToUpper(code)
	if e, ok := table[up]; ok {
		return e
	}
	return Entry{Name: up}
}

// Known：节点码是否在静态表内（仅用于指标观测，不参与翻译逻辑）
func Known(code string) bool {
	_, ok := table[strings.ToUpper(code)]
	return ok
}
