package crm

import (
	"sort"

	"secondbrain/internal/core"
)

// ProjectReport groups the tasks of one project completed in the range.
type ProjectReport struct {
	Project        Project    `json:"project"`
	CompletedTasks []Task     `json:"completedTasks"`
	TotalValue     core.Money `json:"totalValue"`
	Time           Duration   `json:"time"`
}

// CompanyValue is the billed value attributed to one company.
type CompanyValue struct {
	CompanyName string     `json:"companyName"`
	TotalValue  core.Money `json:"totalValue"`
}

// Report is the time and value summary of work completed in a date range.
type Report struct {
	StartDate        core.Date       `json:"startDate"`
	EndDate          core.Date       `json:"endDate"`
	Projects         []ProjectReport `json:"projects"`
	TotalValue       core.Money      `json:"totalValue"`
	TotalTime        Duration        `json:"totalTime"`
	CompanyBreakdown []CompanyValue  `json:"companyBreakdown"`
}

// BuildReport collects every task marked done with a completion stamp
// inside [start, end], whole UTC days. Projects appear in the order their
// first task is found. Tasks whose project no longer exists are grouped
// under a placeholder project and billed to NoCompany. The company
// breakdown is sorted by value, largest first, keeping discovery order on
// ties.
func BuildReport(start, end core.Date, projects []Project, tasks []Task) Report {
	byID := make(map[string]Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	r := Report{
		StartDate:        start,
		EndDate:          end,
		Projects:         []ProjectReport{},
		CompanyBreakdown: []CompanyValue{},
	}
	groupIdx := map[string]int{}
	groupMinutes := map[string]int{}
	companyIdx := map[string]int{}
	totalMinutes := 0

	for _, t := range tasks {
		if !t.CompletedWithin(start, end) {
			continue
		}
		project, ok := byID[t.ProjectID]
		if !ok {
			project = Project{ID: t.ProjectID}
		}

		gi, seen := groupIdx[t.ProjectID]
		if !seen {
			gi = len(r.Projects)
			groupIdx[t.ProjectID] = gi
			r.Projects = append(r.Projects, ProjectReport{Project: project})
		}
		group := &r.Projects[gi]
		group.CompletedTasks = append(group.CompletedTasks, cloneTask(t))
		group.TotalValue = group.TotalValue.Add(t.Price)
		r.TotalValue = r.TotalValue.Add(t.Price)

		if t.CompletionTime != nil {
			m := t.CompletionTime.TotalMinutes()
			groupMinutes[t.ProjectID] += m
			totalMinutes += m
		}

		company := project.Company()
		ci, seen := companyIdx[company]
		if !seen {
			ci = len(r.CompanyBreakdown)
			companyIdx[company] = ci
			r.CompanyBreakdown = append(r.CompanyBreakdown, CompanyValue{CompanyName: company})
		}
		r.CompanyBreakdown[ci].TotalValue = r.CompanyBreakdown[ci].TotalValue.Add(t.Price)
	}

	for i := range r.Projects {
		r.Projects[i].Time = DurationFromMinutes(groupMinutes[r.Projects[i].Project.ID])
	}
	r.TotalTime = DurationFromMinutes(totalMinutes)
	sort.SliceStable(r.CompanyBreakdown, func(i, j int) bool {
		return r.CompanyBreakdown[i].TotalValue.Cents > r.CompanyBreakdown[j].TotalValue.Cents
	})
	return r
}
