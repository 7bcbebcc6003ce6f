package email

import (
	"offerwise_backend/internal/logger"
	"offerwise_backend/internal/models"
	"offerwise_backend/internal/services/dto"
)

// Notifier emails the advisory inbox about recommendation milestones. It
// implements services.RunNotifier and services.AdoptNotifier. Delivery is
// best-effort: failures are logged, never propagated.
type Notifier struct {
	sender    Sender
	templates *TemplateManager
	to        string
}

func NewNotifier(sender Sender, to string) *Notifier {
	return &Notifier{
		sender:    sender,
		templates: NewTemplateManager(),
		to:        to,
	}
}

func (n *Notifier) RunCompleted(studentID string, set *dto.RecommendationSet) {
	n.deliver(TemplateRunCompleted, "选校推荐已生成", TemplateData{
		"StudentID":   studentID,
		"ResultCount": len(set.Results),
		"ReachCount":  set.Counts.Reach,
		"MatchCount":  set.Counts.Match,
		"SafetyCount": set.Counts.Safety,
	})
}

func (n *Notifier) VersionAdopted(studentID string, version *models.RecommendationVersion) {
	n.deliver(TemplateVersionAdopted, "推荐方案已采纳", TemplateData{
		"StudentID": studentID,
		"Summary":   version.Summary,
	})
}

func (n *Notifier) deliver(templateName, subject string, data TemplateData) {
	if n.to == "" {
		return
	}
	body, err := n.templates.Render(templateName, data)
	if err != nil {
		logger.WithError(err).Warn("failed to render notice", "template", templateName)
		return
	}
	if err := n.sender.Send(n.to, subject, body); err != nil {
		logger.WithError(err).Warn("failed to send notice", "template", templateName, "to", n.to)
	}
}
