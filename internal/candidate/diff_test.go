// Copyright 2026, the bump authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package candidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jettyPomDiff = `diff --git a/pom.xml b/pom.xml
index 1234567..89abcde 100644
--- a/pom.xml
+++ b/pom.xml
@@ -40,7 +40,7 @@
     <dependency>
       <groupId>org.eclipse.jetty</groupId>
       <artifactId>jetty-server</artifactId>
-      <version>9.4.17.v20190418</version>
+      <version>10.0.10</version>
     </dependency>
`

func TestDiffExtractJettyFixture(t *testing.T) {
	extracted, ok := DiffExtract(jettyPomDiff)
	require.True(t, ok)
	assert.Equal(t, "org.eclipse.jetty", extracted.GroupID)
	assert.Equal(t, "jetty-server", extracted.ArtifactID)
	assert.Equal(t, "9.4.17.v20190418", extracted.PreviousVersion)
	assert.Equal(t, "10.0.10", extracted.NewVersion)
	assert.Equal(t, ScopeCompile, extracted.Scope)
	assert.Equal(t, VersionOther, ClassifyVersionUpdate(extracted.PreviousVersion, extracted.NewVersion))
}

func TestDiffExtractNoMatchReturnsFalse(t *testing.T) {
	_, ok := DiffExtract("no version lines here")
	assert.False(t, ok)
}

func TestDiffExtractUsesDefaultsWhenIdentifiersMissing(t *testing.T) {
	diff := `--- a/pom.xml
+++ b/pom.xml
@@ -1,3 +1,3 @@
     <dependency>
-      <version>1.0.0</version>
+      <version>1.1.0</version>
     </dependency>
`
	extracted, ok := DiffExtract(diff)
	require.True(t, ok)
	assert.Equal(t, "unknown", extracted.GroupID)
	assert.Equal(t, "unknown", extracted.ArtifactID)
	assert.Equal(t, ScopeCompile, extracted.Scope)
}

func TestDiffExtractPicksUpScope(t *testing.T) {
	diff := `--- a/pom.xml
+++ b/pom.xml
@@ -1,5 +1,5 @@
     <dependency>
       <groupId>javax.servlet</groupId>
       <artifactId>servlet-api</artifactId>
-      <version>2.5</version>
+      <version>3.1.0</version>
       <scope>provided</scope>
     </dependency>
`
	extracted, ok := DiffExtract(diff)
	require.True(t, ok)
	assert.Equal(t, DependencyScope("provided"), extracted.Scope)
}

func TestIsSingleLineVersionBumpInPomXMLAccepts(t *testing.T) {
	ok := IsSingleLineVersionBumpInPomXML(ChangedFileStats{
		ChangedFiles: 1,
		Additions:    1,
		Deletions:    1,
		Filename:     "pom.xml",
	}, jettyPomDiff)
	assert.True(t, ok)
}

func TestIsSingleLineVersionBumpInPomXMLRejectsMultipleFiles(t *testing.T) {
	ok := IsSingleLineVersionBumpInPomXML(ChangedFileStats{
		ChangedFiles: 2,
		Additions:    1,
		Deletions:    1,
		Filename:     "pom.xml",
	}, jettyPomDiff)
	assert.False(t, ok)
}

func TestIsSingleLineVersionBumpInPomXMLRejectsWrongCounts(t *testing.T) {
	ok := IsSingleLineVersionBumpInPomXML(ChangedFileStats{
		ChangedFiles: 1,
		Additions:    2,
		Deletions:    1,
		Filename:     "pom.xml",
	}, jettyPomDiff)
	assert.False(t, ok)
}

func TestIsSingleLineVersionBumpInPomXMLRejectsNonPomFile(t *testing.T) {
	ok := IsSingleLineVersionBumpInPomXML(ChangedFileStats{
		ChangedFiles: 1,
		Additions:    1,
		Deletions:    1,
		Filename:     "build.gradle",
	}, jettyPomDiff)
	assert.False(t, ok)
}

func TestIsSingleLineVersionBumpInPomXMLRejectsLineOutsideDependency(t *testing.T) {
	diff := `--- a/pom.xml
+++ b/pom.xml
@@ -1,1 +1,1 @@
-    <version>1.0.0</version>
+    <version>1.1.0</version>
`
	ok := IsSingleLineVersionBumpInPomXML(ChangedFileStats{
		ChangedFiles: 1,
		Additions:    1,
		Deletions:    1,
		Filename:     "pom.xml",
	}, diff)
	assert.False(t, ok)
}
