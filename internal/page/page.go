// 包 page：信息页渲染，数据驱动自同一份节点/运营商判定结果
package page

import (
	"html/template"
	"net/http"
)

// Data：模板入参；与 JSON 接口共用同一次判定，不做二次分类
type Data struct {
	IP        string
	NodeCode  string
	NodeName  string
	NodeISO   string
	ISPName   string
	ISPColor  string
	ISPBg     string
	RawOrg    string
	ASN       uint32
	RTT       int
	Country   string
	Region    string
	City      string
	Total     int64
	Today     int64
	Commit    string
	AIEnabled bool
}

// ISPStyle：运营商标签的内联样式
// 背景：颜色值来自包内静态规则表，非用户输入；rgba(...) 会被模板的
// CSS 过滤器拒绝，这里以 template.CSS 显式放行。
func (d Data) ISPStyle() template.CSS {
	return template.CSS("color:" + d.ISPColor + ";background:" + d.ISPBg)
}

// FlagURL：国旗图片地址；ISO 为空表示未知节点，不出旗
func (d Data) FlagURL() string {
	if d.NodeISO == "" {
		return ""
	}
	return "https://flagcdn.com/w40/" + d.NodeISO + ".png"
}

var tmpl = template.Must(template.New("page").Parse(pageHTML))

// Render：写出整页 HTML
func Render(w http.ResponseWriter, d Data) error {
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	return tmpl.Execute(w, d)
}

const pageHTML = `<!doctype html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>看看你的网络</title>
<style>
body{font-family:system-ui,-apple-system,"Segoe UI",Roboto,"PingFang SC","Microsoft YaHei",sans-serif;margin:0;background:#f5f7fa;color:#303133}
.wrap{max-width:720px;margin:0 auto;padding:24px 16px}
.card{background:#fff;border-radius:12px;box-shadow:0 2px 12px rgba(0,0,0,.06);padding:20px;margin-bottom:16px}
.row{display:flex;justify-content:space-between;align-items:center;padding:10px 0;border-bottom:1px solid #ebeef5}
.row:last-child{border-bottom:none}
.label{color:#909399;font-size:14px}
.value{font-size:15px;font-weight:600}
.isp{display:inline-block;padding:2px 10px;border-radius:6px;font-weight:600}
.flag{height:14px;margin-right:6px;vertical-align:-1px;border-radius:2px}
.raw{color:#909399;font-size:12px;margin-top:4px;text-align:right}
canvas{width:100%;height:120px}
#analysis{white-space:pre-wrap;font-size:14px;line-height:1.7;min-height:48px;color:#606266}
button{background:#409eff;color:#fff;border:none;border-radius:6px;padding:8px 18px;font-size:14px;cursor:pointer}
button:disabled{background:#a0cfff;cursor:default}
.footer{text-align:center;color:#c0c4cc;font-size:12px;padding:12px 0}
</style>
</head>
<body>
<div class="wrap">
  <div class="card">
    <div class="row"><span class="label">IP 地址</span><span class="value">{{.IP}}</span></div>
    <div class="row"><span class="label">接入节点</span><span class="value">{{if .FlagURL}}<img class="flag" src="{{.FlagURL}}" alt="">{{end}}{{.NodeName}} · {{.NodeCode}}</span></div>
    <div class="row"><span class="label">运营商</span><span><span class="isp" style="{{.ISPStyle}}">{{.ISPName}}</span></span></div>
    {{if .ASN}}<div class="row"><span class="label">ASN</span><span class="value">AS{{.ASN}}</span></div>{{end}}
    {{if .Country}}<div class="row"><span class="label">归属地</span><span class="value">{{.Country}} {{.Region}} {{.City}}</span></div>{{end}}
    <div class="row"><span class="label">握手时延</span><span class="value" id="rtt">{{if .RTT}}{{.RTT}} ms{{else}}未测得{{end}}</span></div>
    {{if .RawOrg}}<div class="raw">{{.RawOrg}}</div>{{end}}
  </div>
  <div class="card">
    <div class="label" style="margin-bottom:8px">时延走势</div>
    <canvas id="chart" width="680" height="120"></canvas>
  </div>
  <div class="card">
    <div class="label" style="margin-bottom:8px">AI 网络分析</div>
    <div id="analysis">{{if .AIEnabled}}点击下方按钮开始分析。{{else}}分析功能未启用。{{end}}</div>
    {{if .AIEnabled}}<button id="btn" onclick="analyze()">开始分析</button>{{end}}
  </div>
  <div class="footer">累计查询 {{.Total}} 次 · 今日 {{.Today}} 次 · {{.Commit}}</div>
</div>
<script>
var samples=[];
function draw(){
  var c=document.getElementById('chart'),x=c.getContext('2d');
  x.clearRect(0,0,c.width,c.height);
  if(!samples.length)return;
  var max=Math.max.apply(null,samples)*1.2||1,step=c.width/Math.max(samples.length-1,1);
  x.beginPath();x.strokeStyle='#409eff';x.lineWidth=2;
  samples.forEach(function(v,i){
    var px=i*step,py=c.height-(v/max)*c.height;
    i?x.lineTo(px,py):x.moveTo(px,py);
  });
  x.stroke();
}
function ping(){
  var t0=performance.now();
  fetch('/?action=ping').then(function(r){return r.json()}).then(function(){
    samples.push(Math.round(performance.now()-t0));
    if(samples.length>30)samples.shift();
    draw();
  }).catch(function(){});
}
setInterval(ping,2000);ping();
function analyze(){
  var btn=document.getElementById('btn'),out=document.getElementById('analysis');
  btn.disabled=true;out.textContent='';
  fetch('/?action=ai').then(function(r){
    if(!r.ok)throw new Error('HTTP '+r.status);
    var rd=r.body.getReader(),dec=new TextDecoder();
    function pump(){
      return rd.read().then(function(s){
        if(s.done){btn.disabled=false;return}
        dec.decode(s.value,{stream:true}).split('\n').forEach(function(line){
          if(line.indexOf('data: ')!==0)return;
          var p=line.slice(6);
          if(p==='[DONE]')return;
          try{
            var j=JSON.parse(p);
            var d=j.choices&&j.choices[0]&&j.choices[0].delta;
            if(d&&d.content)out.textContent+=d.content;
            if(j.error)out.textContent+='\n[出错] '+j.error;
          }catch(e){}
        });
        return pump();
      });
    }
    return pump();
  }).catch(function(e){out.textContent='分析失败：'+e.message;btn.disabled=false});
}
</script>
</body>
</html>
`
