package email

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
)

// TemplateData carries the values a notice template renders with.
type TemplateData map[string]interface{}

// TemplateManager keeps the parsed notice templates.
type TemplateManager struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

func NewTemplateManager() *TemplateManager {
	tm := &TemplateManager{templates: make(map[string]*template.Template)}
	for name, body := range builtinTemplates {
		// Built-ins are compile-checked by the tests; parse cannot fail here.
		tm.AddTemplate(name, body)
	}
	return tm
}

func (tm *TemplateManager) Render(name string, data TemplateData) (string, error) {
	tm.mu.RLock()
	tpl, ok := tm.templates[name]
	tm.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (tm *TemplateManager) AddTemplate(name, body string) error {
	tpl, err := template.New(name).Parse(body)
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	tm.mu.Lock()
	tm.templates[name] = tpl
	tm.mu.Unlock()
	return nil
}

const (
	TemplateRunCompleted   = "run_completed"
	TemplateVersionAdopted = "version_adopted"
)

var builtinTemplates = map[string]string{
	TemplateRunCompleted: `<html><body>
<h3>选校推荐已生成</h3>
<p>学生 {{.StudentID}} 的推荐运行已完成，共 {{.ResultCount}} 条结果：</p>
<ul>
<li>冲刺 {{.ReachCount}} 个</li>
<li>匹配 {{.MatchCount}} 个</li>
<li>保底 {{.SafetyCount}} 个</li>
</ul>
<p>请登录系统查看详情并整理候选池。</p>
</body></html>`,

	TemplateVersionAdopted: `<html><body>
<h3>推荐方案已采纳</h3>
<p>学生 {{.StudentID}} 采纳了推荐版本：{{.Summary}}</p>
<p>该版本现为当前定校方案。</p>
</body></html>`,
}
