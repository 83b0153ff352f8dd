package render

import (
	"html/template"
	"io"
)

var printTmpl = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="zh-Hant">
<head>
<meta charset="utf-8">
<title>出貨單 {{.Vendor}} {{.Date}}</title>
<style>
@page { size: B4; margin: 12mm; }
body { margin: 0; color: #111; font-family: -apple-system, "Noto Sans CJK TC", "Microsoft JhengHei", sans-serif; }
.wrap { max-width: 980px; margin: 20px auto 40px; padding: 0 16px; }
.title { text-align: center; font-size: 20pt; font-weight: 700; margin: 6px 0 12px; }
.meta { display: grid; grid-template-columns: 1fr 1fr 1fr; column-gap: 12mm; margin: 0 0 12mm; font-size: 11pt; }
.cell { border-bottom: 1px solid #000; padding: 6px 0 4px; }
.label { color: #555; margin-right: 6px; }
table { width: 100%; border-collapse: collapse; table-layout: fixed; font-size: 11pt; }
thead th { border-bottom: 2px solid #000; padding: 6pt 2pt; }
tbody td { border-bottom: 1px solid #ccc; padding: 6pt 2pt; }
th, td { text-align: right; }
.name { text-align: left; }
.idx { width: 12mm; text-align: center; }
.qty { width: 22mm; }
.unit { width: 18mm; text-align: center; }
.price { width: 24mm; }
.sub { width: 28mm; }
.tot { margin-top: 12mm; font-size: 16pt; font-weight: 800; text-align: right; }
</style>
</head>
<body>
<div class="wrap">
<div class="title">{{.Company}}</div>
<div class="meta">
<div class="cell"><span class="label">出貨廠商：</span>{{.Vendor}}</div>
<div class="cell"><span class="label">出貨日期：</span>{{.Date}}</div>
<div class="cell"><span class="label">列印時間：</span>{{.PrintedAt}}</div>
</div>
<table>
<thead>
<tr><th class="idx">編號</th><th class="name">產品名稱</th><th class="qty">數量</th><th class="unit">單位</th><th class="price">單價</th><th class="sub">總計</th></tr>
</thead>
<tbody>
{{range .Rows}}<tr><td class="idx">{{.ProductID}}</td><td class="name">{{.Product}}</td><td class="qty">{{.Quantity}}</td><td class="unit">{{.Unit}}</td><td class="price">{{.UnitPrice}}</td><td class="sub">{{.Amount}}</td></tr>
{{end}}</tbody>
</table>
<div class="tot">總金額：{{.Total}}</div>
</div>
</body>
</html>
`))

// WriteHTML writes the printable order sheet.
func WriteHTML(w io.Writer, s Sheet) error {
	return printTmpl.Execute(w, s)
}
