package sshtarget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderDefaultTemplate(t *testing.T) {
	args := Render("", Target{User: "docker", Host: "10.0.0.1", Identity: "/id_rsa", Port: 2222})
	assert.Equal(t, []string{"-i", "/id_rsa", "-p", "2222", "docker@10.0.0.1"}, args)
}

func TestRenderDefaultsPort22(t *testing.T) {
	args := Render("", Target{User: "docker", Host: "10.0.0.1", Identity: "/id_rsa"})
	assert.Contains(t, args, "22")
}

func TestRenderCustomTemplate(t *testing.T) {
	args := Render("ssh -o StrictHostKeyChecking=no %user%@%host%", Target{User: "root", Host: "h"})
	assert.Equal(t, []string{"-o", "StrictHostKeyChecking=no", "root@h"}, args)
}

func TestSCPDestination(t *testing.T) {
	assert.Equal(t, "docker@10.0.0.1:/data", SCPDestination(Target{User: "docker", Host: "10.0.0.1"}, "/data"))
}
