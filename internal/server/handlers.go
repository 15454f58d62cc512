package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ElMariones/portfolio/internal/content"
	"github.com/ElMariones/portfolio/internal/session"
	"github.com/ElMariones/portfolio/internal/submission"
)

const invalidContactMessage = "Please fill in every field with a valid email address."

type pageData struct {
	Portfolio *content.Portfolio
	Projects  projectsData
	CV        cvData
	Contact   contactData
}

type projectsData struct {
	Projects []content.Project
	Expanded string
}

type cvData struct {
	CV        content.CV
	Skills    []string
	Languages []content.Language
	Open      bool
}

type contactData struct {
	Phase     string
	Pending   bool
	Succeeded bool
	Polling   bool
	PollEvery string
	Error     string
	Draft     submission.Payload
}

// contactForm is bound from the contact form fields.
type contactForm struct {
	FullName string `form:"fullName" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Message  string `form:"message" binding:"required"`
}

// complete reports whether every field is non-blank once trimmed.
func (f contactForm) complete() bool {
	p := f.payload()
	return p.Name != "" && p.Email != "" && p.Message != ""
}

func (f contactForm) payload() submission.Payload {
	return submission.Payload{
		Name:    strings.TrimSpace(f.FullName),
		Email:   strings.TrimSpace(f.Email),
		Message: strings.TrimSpace(f.Message),
	}
}

func (s *Server) projects(p *content.Portfolio, snap session.Snapshot) projectsData {
	return projectsData{Projects: p.Projects, Expanded: snap.ExpandedProject}
}

func (s *Server) cv(p *content.Portfolio, snap session.Snapshot) cvData {
	return cvData{CV: p.CV, Skills: p.Skills, Languages: p.Languages, Open: snap.CVOpen}
}

func (s *Server) contact(st submission.State) contactData {
	d := contactData{
		Phase:     st.Phase.String(),
		Pending:   st.Phase == submission.Pending,
		Succeeded: st.Phase == submission.Succeeded,
		PollEvery: fmt.Sprintf("%dms", s.pollEvery.Milliseconds()),
		Draft:     st.Draft,
	}
	d.Polling = d.Pending || d.Succeeded
	if st.Phase == submission.Failed {
		d.Error = st.ErrorMessage
	}
	return d
}

func (s *Server) handleIndex(c *gin.Context) {
	v := viewFrom(c)
	p := s.content.Get()
	snap := v.Snapshot()

	c.HTML(http.StatusOK, "index.html", pageData{
		Portfolio: p,
		Projects:  s.projects(p, snap),
		CV:        s.cv(p, snap),
		Contact:   s.contact(v.Contact().State()),
	})
}

func (s *Server) handleToggleProject(c *gin.Context) {
	v := viewFrom(c)
	v.ToggleProject(c.Param("id"))
	c.HTML(http.StatusOK, "projects.html", s.projects(s.content.Get(), v.Snapshot()))
}

func (s *Server) handleToggleCV(c *gin.Context) {
	v := viewFrom(c)
	v.ToggleCV()
	c.HTML(http.StatusOK, "cv.html", s.cv(s.content.Get(), v.Snapshot()))
}

func (s *Server) handleCloseCV(c *gin.Context) {
	v := viewFrom(c)
	v.CloseCV()
	c.HTML(http.StatusOK, "cv.html", s.cv(s.content.Get(), v.Snapshot()))
}

func (s *Server) handleContactStatus(c *gin.Context) {
	c.HTML(http.StatusOK, "contact.html", s.contact(viewFrom(c).Contact().State()))
}

func (s *Server) handleContact(c *gin.Context) {
	ctrl := viewFrom(c).Contact()

	var form contactForm
	if err := c.ShouldBind(&form); err != nil || !form.complete() {
		d := s.contact(ctrl.State())
		d.Draft = form.payload()
		d.Error = invalidContactMessage
		d.Succeeded = false
		d.Polling = d.Pending
		c.HTML(http.StatusUnprocessableEntity, "contact.html", d)
		return
	}

	if !ctrl.Submit(form.payload()) {
		s.logger.Debug("contact submit ignored while pending")
	}
	c.HTML(http.StatusOK, "contact.html", s.contact(ctrl.State()))
}
