package blog

import (
	"context"
	"fmt"
	"strings"

	"recordcore/internal/core"
	"recordcore/pkg/record"
)

// Plugin bundles the reference blog schema: users writing posts,
// comments under posts, and free-form tags.
type Plugin struct{}

// New constructs a blog plugin instance.
func New() Plugin {
	return Plugin{}
}

// Name returns the plugin identifier.
func (Plugin) Name() string { return "blog" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "0.1.0" }

// Register wires the blog models and rules.
func (Plugin) Register(registry *core.PluginRegistry) error {
	registry.RegisterModel(User{})
	registry.RegisterModel(Post{})
	registry.RegisterModel(Comment{})
	registry.RegisterModel(Tag{})
	registry.RegisterRule(publishedPostRule{})
	return nil
}

// publishedPostRule blocks publishing a post without a title or body.
type publishedPostRule struct{}

func (publishedPostRule) Name() string { return "blog_published_post_complete" }

func (publishedPostRule) Evaluate(_ context.Context, _ record.View, changes []record.Change) (record.Result, error) {
	var result record.Result
	for _, change := range changes {
		if change.Table != "posts" || change.Action == record.ActionDelete || change.After == nil {
			continue
		}
		fields, err := change.After.Fields()
		if err != nil {
			return record.Result{}, err
		}
		published, _ := fields["published"].(bool)
		if !published {
			continue
		}
		title, _ := fields["title"].(string)
		body, _ := fields["body"].(string)
		if strings.TrimSpace(title) == "" || strings.TrimSpace(body) == "" {
			result.Violations = append(result.Violations, record.Violation{
				Rule:     "blog_published_post_complete",
				Severity: record.SeverityBlock,
				Message:  fmt.Sprintf("post %s cannot be published without title and body", change.After.ID),
				Table:    change.Table,
				RecordID: change.After.ID,
			})
		}
	}
	return result, nil
}
