package render

const cardsTemplate = `{{define "cards"}}<div class="douban-cards" data-count="{{len .Subjects}}">
{{- if not .Subjects}}
<div class="douban-empty col-span-full text-center py-8"><div class="text-pink-500">{{.EmptyText}}</div></div>
{{- else}}
{{- range .Subjects}}
<div class="douban-card" data-id="{{.ID}}">
<div class="douban-cover" data-title="{{.Title}}">
<img src="{{.Cover}}" alt="{{.Title}}" data-fallback-src="{{.ProxiedCover}}" loading="lazy" referrerpolicy="no-referrer">
<div class="douban-rate"><span class="text-yellow-400">★</span> {{.Rate}}</div>
{{- if .URL}}
<div class="douban-link"><a href="{{.URL}}" target="_blank" rel="noopener noreferrer" title="在豆瓣查看">🔗</a></div>
{{- end}}
</div>
<div class="douban-title"><button type="button" data-title="{{.Title}}" title="{{.Title}}">{{.Title}}</button></div>
</div>
{{- end}}
{{- end}}
</div>{{end}}`

const tagsTemplate = `{{define "tags"}}<div class="douban-tags" data-category="{{.Category}}">
<button type="button" class="douban-tag-manage" data-action="manage">管理标签</button>
{{- range .Tags}}
<button type="button" class="douban-tag{{if .Active}} active{{end}}" data-tag="{{.Name}}"{{if .Active}} aria-pressed="true"{{end}}{{if .Locked}} data-locked="true"{{end}}>{{.Name}}</button>
{{- end}}
</div>{{end}}`

const failureTemplate = `{{define "failure"}}<div class="douban-failure col-span-full text-center py-8">
<div class="text-red-400">{{.Message}}</div>
<div class="text-gray-500 text-sm mt-2">{{.Suggestion}}</div>
</div>{{end}}`

const widgetTemplate = `{{define "widget"}}<section id="doubanArea" class="douban-area" data-enabled="{{.Enabled}}" data-page-start="{{.PageStart}}"{{if .Loading}} aria-busy="true"{{end}}>
<div class="douban-switch">
{{- range .Categories}}
<button type="button" class="douban-category{{if .Active}} active{{end}}" data-category="{{.Value}}">{{.Label}}</button>
{{- end}}
<button type="button" class="douban-refresh" data-action="next">换一批</button>
</div>
{{template "tags" .TagBar}}
<div id="douban-results">
{{- if .Failed}}{{template "failure" .Failure}}{{else if .Cards}}{{template "cards" .Cards}}{{else}}<div class="douban-loading">加载中...</div>{{end}}
</div>
</section>{{end}}`
