package stackprofile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestProfileGoGin(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", `module example.com/api

go 1.24

require github.com/gin-gonic/gin v1.9.0
`)

	profile := Profile(root, "api")
	require.Equal(t, "go", profile.PrimaryLanguage)
	require.Equal(t, "go modules", profile.PackageManager)
	require.Contains(t, profile.Frameworks, "gin")
	require.Contains(t, profile.SkillIDs, "lang:go")
	require.Contains(t, profile.SkillIDs, "framework:gin")
}

func TestProfileNodeReact(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies": {"react": "^18.0.0"}}`)

	profile := Profile(root, "web")
	require.Equal(t, "javascript", profile.PrimaryLanguage)
	require.Equal(t, "npm", profile.PackageManager)
	require.Contains(t, profile.Frameworks, "react")
}

func TestProfileLambdaViaServerlessYAML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "serverless.yml", "service: my-svc\nfunctions:\n  hello:\n    handler: handler.hello\n")

	profile := Profile(root, "lambda-svc")
	require.True(t, profile.IsLambda)
	require.Contains(t, profile.SkillIDs, "deploy:lambda")
}

func TestProfileLambdaViaHandlerGlob(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/handler.py", "def handle(event, context):\n    return {}\n")

	profile := Profile(root, "lambda-py")
	require.True(t, profile.IsLambda)
}

func TestProfileNoLambdaWhenNoSignals(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/plain\n\ngo 1.24\n")

	profile := Profile(root, "plain")
	require.False(t, profile.IsLambda)
}
