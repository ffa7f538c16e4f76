package web

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Deskflow Dashboard</title>
    <script src="https://unpkg.com/htmx.org@1.9.10"></script>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --bg-primary: #f5f5f5;
            --bg-secondary: white;
            --text-primary: #333;
            --text-muted: #7f8c8d;
            --border-color: #eee;
            --accent-color: #3498db;
            --productive-color: #27ae60;
        }

        [data-theme="dark"] {
            --bg-primary: #1a1a1a;
            --bg-secondary: #2d2d2d;
            --text-primary: #e0e0e0;
            --text-muted: #a0a0a0;
            --border-color: #404040;
            --accent-color: #5dade2;
            --productive-color: #58d68d;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            padding: 20px;
        }

        .header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 24px; }
        h1 { font-size: 1.8rem; }
        h2 { font-size: 1.1rem; margin-bottom: 12px; color: var(--accent-color); }

        .header-btn {
            background: var(--bg-secondary);
            border: 2px solid var(--border-color);
            border-radius: 50px;
            padding: 6px 14px;
            cursor: pointer;
        }

        .card {
            background: var(--bg-secondary);
            border-radius: 8px;
            padding: 20px;
            max-width: 720px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }

        .category-item {
            position: relative;
            display: flex;
            justify-content: space-between;
            padding: 8px 4px;
            border-bottom: 1px solid var(--border-color);
        }

        .category-item::before {
            content: "";
            position: absolute;
            left: 0; top: 0; bottom: 0;
            width: var(--bar-width);
            background: var(--accent-color);
            opacity: 0.12;
        }

        .category-item.productive .category-name { color: var(--productive-color); font-weight: 600; }
        .category-time, .category-percentage { font-family: monospace; margin-left: 12px; }
        .total { margin-top: 12px; color: var(--text-muted); text-align: right; }
        .loading { color: var(--text-muted); }
    </style>
</head>
<body>
    <div class="header">
        <h1>Deskflow</h1>
        <button class="header-btn" onclick="toggleTheme()">Theme</button>
    </div>

    <div class="card">
        <h2>Today</h2>
        <div hx-get="/api/summary" hx-trigger="load, every 30s" hx-swap="innerHTML">
            <div class="loading">Loading...</div>
        </div>
    </div>

    <script>
        function toggleTheme() {
            const next = document.documentElement.getAttribute('data-theme') === 'dark' ? 'light' : 'dark';
            document.documentElement.setAttribute('data-theme', next);
            localStorage.setItem('theme', next);
        }

        document.documentElement.setAttribute('data-theme', localStorage.getItem('theme') || 'light');
    </script>
</body>
</html>`
