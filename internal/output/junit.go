package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// junitRenderer produces JUnit XML: one test case per finding, wrapped in a
// single suite named for the tool, so CI systems that only understand test
// reports can surface findings.
type junitRenderer struct{}

func (junitRenderer) Render(r *Report) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	suites := doc.CreateElement("testsuites")
	suites.CreateAttr("tests", strconv.Itoa(len(r.Matches)))
	suites.CreateAttr("failures", strconv.Itoa(len(r.Matches)))

	suite := suites.CreateElement("testsuite")
	suite.CreateAttr("name", toolName+" results")
	suite.CreateAttr("tests", strconv.Itoa(len(r.Matches)))
	suite.CreateAttr("failures", strconv.Itoa(len(r.Matches)))
	suite.CreateAttr("errors", "0")

	for i := range r.Matches {
		m := &r.Matches[i]
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("name", m.RuleID)
		tc.CreateAttr("classname", m.Path)
		tc.CreateAttr("file", m.Path)
		tc.CreateAttr("line", strconv.Itoa(m.Start.Line))

		failure := tc.CreateElement("failure")
		failure.CreateAttr("message", m.Message)
		failure.CreateAttr("type", string(m.Severity))
		failure.SetText(strings.Join(m.DisplayLines(), "\n"))
	}

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serializing junit report: %w", err)
	}
	return out, nil
}
