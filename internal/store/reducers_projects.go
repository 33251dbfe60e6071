package store

import "github.com/sitecrew/sitecrew/internal/model"

func reduceProjects(s State, o Outcome) State {
	p := s.Projects
	switch o.Op {
	case OpProjectsClearError:
		p.Error = ""
	case OpClearCurrentProject:
		p.Current = nil
		p.Timeline = nil
	case OpProjectUpsertFeed:
		if v, ok := payload[model.Project](o); ok {
			p.Items = upsert(p.Items, v, true)
			if p.Current != nil && p.Current.ID == v.ID {
				p.Current = &v
			}
		}
	case OpProjectRemoveFeed:
		if d, ok := payload[Deleted](o); ok {
			p = removeProject(p, d.ID)
		}
	default:
		lifecycle(o, &p.IsLoading, &p.Error)
		if o.Fulfilled() {
			p = fulfilProject(p, o)
		}
	}
	s.Projects = p
	return s
}

func fulfilProject(p ProjectsState, o Outcome) ProjectsState {
	switch o.Op {
	case OpFetchProjects:
		page, ok := payload[ProjectPage](o)
		if !ok {
			return p
		}
		if page.Page <= 1 {
			p.Items = slicesOrEmpty(page.Items)
		} else {
			p.Items = append(append([]model.Project{}, p.Items...), page.Items...)
		}
		p.Page = page.Page
		p.Total = page.Total
		p.HasMore = page.HasMore
	case OpFetchProjectByID:
		if v, ok := payload[model.Project](o); ok {
			p.Current = &v
		}
	case OpCreateProject:
		if v, ok := payload[model.Project](o); ok {
			p.Items = upsert(p.Items, v, true)
			p.Total++
		}
	case OpUpdateProject, OpUpdateProjectStatus:
		if v, ok := payload[model.Project](o); ok {
			p.Items = replaceByID(p.Items, v)
			if p.Current != nil && p.Current.ID == v.ID {
				p.Current = &v
			}
		}
	case OpDeleteProject:
		if d, ok := payload[Deleted](o); ok {
			p = removeProject(p, d.ID)
			if p.Total > 0 {
				p.Total--
			}
		}
	case OpFetchProjectTimeline:
		if items, ok := payload[[]model.ProjectTimeline](o); ok {
			p.Timeline = slicesOrEmpty(items)
		}
	case OpCreateTimelineItem:
		if v, ok := payload[model.ProjectTimeline](o); ok {
			p.Timeline = upsert(p.Timeline, v, false)
		}
	case OpUpdateTimelineItem:
		if v, ok := payload[model.ProjectTimeline](o); ok {
			p.Timeline = replaceByID(p.Timeline, v)
		}
	}
	return p
}

func removeProject(p ProjectsState, id string) ProjectsState {
	p.Items = removeByID(p.Items, id)
	if p.Current != nil && p.Current.ID == id {
		p.Current = nil
		p.Timeline = nil
	}
	return p
}

func slicesOrEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
