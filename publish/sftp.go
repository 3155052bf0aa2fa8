package publish

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"time"

	"vidstego/logger"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// UploadToSFTPWithCreds uploads content to a remote server over SFTP.
// opts: host, user, remoteDir (required); port (default 22), password or
// privateKey (base64 or raw PEM).
func UploadToSFTPWithCreds(ctx context.Context, opts map[string]string, name string, reader io.Reader) error {
	host := opts["host"]
	port := opts["port"]
	if port == "" {
		port = "22"
	}
	user := opts["user"]
	remoteDir := opts["remoteDir"]
	if host == "" || user == "" || remoteDir == "" {
		return fmt.Errorf("missing required options: host, user, remoteDir")
	}

	auth, err := sshAuth(opts)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(host, port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial tcp %s: %w", addr, err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(clientConn, chans, reqs)
	defer sshClient.Close()

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return fmt.Errorf("create sftp client: %w", err)
	}
	defer client.Close()

	if err := client.MkdirAll(remoteDir); err != nil {
		return fmt.Errorf("create remote dir %s: %w", remoteDir, err)
	}
	remotePath := path.Join(remoteDir, path.Base(name))

	f, err := client.OpenFile(remotePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("open remote file %s: %w", remotePath, err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		return fmt.Errorf("copy to remote file %s: %w", remotePath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close remote file %s: %w", remotePath, err)
	}

	logger.Infof("Successfully uploaded '%s' to sftp://%s%s", name, addr, remotePath)
	return nil
}

func sshAuth(opts map[string]string) (ssh.AuthMethod, error) {
	if privateKey := opts["privateKey"]; privateKey != "" {
		keyBytes, err := base64.StdEncoding.DecodeString(privateKey)
		if err != nil {
			keyBytes = []byte(privateKey)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		return ssh.PublicKeys(signer), nil
	}
	if password := opts["password"]; password != "" {
		return ssh.Password(password), nil
	}
	return nil, fmt.Errorf("no auth method provided; set password or privateKey")
}
